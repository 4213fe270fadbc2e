package indicator

// Record is the derived indicator set for one roster entry.
// JSON keys follow the published signatories.json.
type Record struct {
	PublisherID            string  `json:"publisherID"`
	OrganisationRef        string  `json:"iatiOrganisationID"`
	Name                   string  `json:"name"`
	Signatory              string  `json:"gbSignatory"`
	OrganisationType       string  `json:"organisationType"`
	IATIVersion            *string `json:"iatiVersion"`
	HumanitarianData       bool    `json:"humData"`
	HumanitarianActivities int     `json:"humanitarianActivities"`
	Activities             int     `json:"activities"`
	Granular202            bool    `json:"202HumData"`
	Granular203            bool    `json:"203HumData"`
	Traceability           bool    `json:"traceability"`
	Monthly                bool    `json:"monthly"`
	Frequency              *string `json:"frequency"`
}

// Columns is the column order of signatories.csv
var Columns = []string{
	"publisherID",
	"iatiOrganisationID",
	"name",
	"gbSignatory",
	"organisationType",
	"iatiVersion",
	"humData",
	"humanitarianActivities",
	"activities",
	"202HumData",
	"203HumData",
	"traceability",
	"monthly",
	"frequency",
}

// Version returns the IATI version or "" when unknown
func (r Record) Version() string {
	if r.IATIVersion == nil {
		return ""
	}
	return *r.IATIVersion
}
