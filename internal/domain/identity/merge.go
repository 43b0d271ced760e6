package identity

import "github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"

var PatientFields = []string{
	"externalId", "active", "mrn", "firstName", "lastName", "birthDate", "gender",
	"phone", "email", "addressLine", "city", "state", "postalCode", "country",
	"organizationRef",
}

var PractitionerFields = []string{
	"externalId", "active", "firstName", "lastName", "gender", "phone", "email",
	"npi", "qualification",
}

// Merge overwrites the column fields present in rec. The organization
// relation is resolved and set by the caller.
func (p *Patient) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &p.ExternalID)
	m.Bool("active", &p.Active)
	m.StringPtr("mrn", &p.MRN)
	m.String("firstName", &p.FirstName)
	m.String("lastName", &p.LastName)
	m.TimePtr("birthDate", &p.BirthDate)
	m.StringPtr("gender", &p.Gender)
	m.StringPtr("phone", &p.Phone)
	m.StringPtr("email", &p.Email)
	m.StringPtr("addressLine", &p.AddressLine)
	m.StringPtr("city", &p.City)
	m.StringPtr("state", &p.State)
	m.StringPtr("postalCode", &p.PostalCode)
	m.StringPtr("country", &p.Country)
	return m.Err()
}

func (p *Practitioner) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &p.ExternalID)
	m.Bool("active", &p.Active)
	m.String("firstName", &p.FirstName)
	m.String("lastName", &p.LastName)
	m.StringPtr("gender", &p.Gender)
	m.StringPtr("phone", &p.Phone)
	m.StringPtr("email", &p.Email)
	m.StringPtr("npi", &p.NPI)
	m.StringPtr("qualification", &p.Qualification)
	return m.Err()
}
