package models

import (
	"fmt"
	"time"
)

type Breed string

const (
	BreedWestAfricanShorthorn Breed = "WEST_AFRICAN_SHORTHORN"
	BreedZebu                 Breed = "ZEBU"
	BreedSanga                Breed = "SANGA"
	BreedCrossbreed           Breed = "CROSSBREED"
	BreedOther                Breed = "OTHER"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type HealthStatus string

const (
	HealthExcellent HealthStatus = "EXCELLENT"
	HealthGood      HealthStatus = "GOOD"
	HealthFair      HealthStatus = "FAIR"
	HealthPoor      HealthStatus = "POOR"
)

// Regions holds the sixteen Ghana region codes accepted for listings
// and user profiles.
var Regions = []string{
	"ASHANTI", "BRONG_AHAFO", "CENTRAL", "EASTERN", "GREATER_ACCRA",
	"NORTHERN", "UPPER_EAST", "UPPER_WEST", "VOLTA", "WESTERN",
	"SAVANNAH", "BONO_EAST", "AHAFO", "WESTERN_NORTH", "NORTH_EAST", "OTI",
}

func ValidRegion(code string) bool {
	for _, r := range Regions {
		if r == code {
			return true
		}
	}
	return false
}

// Cattle is a single for-sale listing.
type Cattle struct {
	ID                  string
	SellerID            string
	Title               string
	Description         string
	Breed               Breed
	Gender              Gender
	AgeMonths           int
	WeightKg            float64
	Price               float64
	IsNegotiable        bool
	HealthStatus        HealthStatus
	VaccinationStatus   bool
	LastVaccinationDate *time.Time
	HealthNotes         string
	FeedingHistory      string
	Region              string
	City                string
	LocationDetails     string
	IsActive            bool
	IsSold              bool
	SoldDate            *time.Time
	ViewCount           int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AgeDisplay renders AgeMonths as "N year(s) M month(s)".
func (c Cattle) AgeDisplay() string {
	years := c.AgeMonths / 12
	months := c.AgeMonths % 12
	if years > 0 {
		return fmt.Sprintf("%d year(s) %d month(s)", years, months)
	}
	return fmt.Sprintf("%d month(s)", months)
}

// CattleImage associates a stored display artifact and its thumbnail
// with a listing. At most one image per listing carries IsPrimary.
type CattleImage struct {
	ID           string
	CattleID     string
	Bucket       string
	ObjectKey    string
	ThumbnailKey string
	Filename     string
	SizeBytes    int64
	Caption      string
	IsPrimary    bool
	UploadedAt   time.Time
}

type DocumentType string

const (
	DocumentHealthCertificate DocumentType = "HEALTH_CERTIFICATE"
	DocumentVaccinationRecord DocumentType = "VACCINATION_RECORD"
	DocumentVetReport         DocumentType = "VET_REPORT"
	DocumentOther             DocumentType = "OTHER"
)

func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentHealthCertificate, DocumentVaccinationRecord, DocumentVetReport, DocumentOther:
		return true
	}
	return false
}

// HealthDocument is a certificate or record attached to a listing.
// The stored file is kept byte-for-byte as uploaded.
type HealthDocument struct {
	ID           string
	CattleID     string
	DocumentType DocumentType
	Bucket       string
	ObjectKey    string
	DocumentName string
	IssueDate    *time.Time
	ExpiryDate   *time.Time
	Notes        string
	UploadedAt   time.Time
}

// IsExpired reports whether the document's expiry date is strictly
// before asOf's date. Documents without an expiry never expire.
func (d HealthDocument) IsExpired(asOf time.Time) bool {
	if d.ExpiryDate == nil {
		return false
	}
	expiry := d.ExpiryDate.Truncate(24 * time.Hour)
	day := asOf.UTC().Truncate(24 * time.Hour)
	return expiry.Before(day)
}
