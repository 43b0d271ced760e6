package admin

import "github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"

// OrganizationFields is the closed set of mapping targets for Organization.
var OrganizationFields = []string{
	"externalId", "name", "active", "typeCode", "phone", "email", "city", "country",
}

// Merge overwrites the fields present in rec. Fields the mapping did not
// produce keep their stored values.
func (o *Organization) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &o.ExternalID)
	m.String("name", &o.Name)
	m.Bool("active", &o.Active)
	m.StringPtr("typeCode", &o.TypeCode)
	m.StringPtr("phone", &o.Phone)
	m.StringPtr("email", &o.Email)
	m.StringPtr("city", &o.City)
	m.StringPtr("country", &o.Country)
	return m.Err()
}
