package resourcecache

import (
	"strings"
	"time"
)

// Collection names a reference snapshot.
type Collection string

const (
	MedicalResources Collection = "medical_resources"
	BloodBanks       Collection = "blood_banks"
	EmergencyAlerts  Collection = "emergency_alerts"
)

// Collections lists every reference collection the cache manages.
var Collections = []Collection{MedicalResources, BloodBanks, EmergencyAlerts}

// Searchable exposes the text fields offline search runs over.
type Searchable interface {
	SearchText() []string
}

type MedicalResource struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

func (m MedicalResource) SearchText() []string {
	return []string{m.Title, m.Category, m.Description}
}

type BloodBank struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	City       string   `json:"city"`
	Phone      string   `json:"phone,omitempty"`
	BloodTypes []string `json:"bloodTypes,omitempty"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lng"`
}

func (b BloodBank) SearchText() []string {
	return append([]string{b.Name, b.Address, b.City}, b.BloodTypes...)
}

type EmergencyAlert struct {
	ID        string    `json:"id"`
	BloodType string    `json:"bloodType"`
	Hospital  string    `json:"hospital"`
	City      string    `json:"city"`
	Urgency   string    `json:"urgency"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e EmergencyAlert) SearchText() []string {
	return []string{e.BloodType, e.Hospital, e.City, e.Urgency, e.Message}
}

// MatchText builds a predicate matching items whose text fields contain query,
// ignoring case. An empty query matches everything.
func MatchText[T Searchable](query string) func(T) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(item T) bool {
		if q == "" {
			return true
		}
		for _, field := range item.SearchText() {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
}
