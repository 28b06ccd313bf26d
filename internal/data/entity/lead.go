package entity

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type Lead struct {
	Base
	Name     string     `json:"name" validate:"required,max=200"`
	WhatsApp string     `json:"whatsapp" validate:"required,max=32"`
	Source   string     `json:"source" validate:"max=100"`
	Status   LeadStatus `json:"status" validate:"required,oneof=new contacted converted lost"`
	Notes    *string    `json:"notes,omitempty"`
}
