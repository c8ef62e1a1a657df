package patient

import (
	"time"

	"github.com/google/uuid"
)

// Medical examination types offered at registration.
const (
	MedicalTypeMauritius = "MAURITIUS"
	MedicalTypeSMVDRL    = "SM-VDRL"
	MedicalTypeMedical   = "MEDICAL"
	MedicalTypeFM        = "FM"
	MedicalTypeNormal    = "NORMAL"
)

var medicalTypes = map[string]bool{
	MedicalTypeMauritius: true,
	MedicalTypeSMVDRL:    true,
	MedicalTypeMedical:   true,
	MedicalTypeFM:        true,
	MedicalTypeNormal:    true,
}

// Patient is the registration record other documents copy identity from.
// Photo holds a base64 data URI.
type Patient struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	PassportNumber string    `json:"passportNumber"`
	IssuingCountry string    `json:"issuingCountry,omitempty"`
	Occupation     string    `json:"occupation,omitempty"`
	Sex            string    `json:"sex"`
	Age            int       `json:"age"`
	Photo          string    `json:"photo,omitempty"`
	MedicalType    string    `json:"medicalType"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
