package models

// Domain is a per-hostname policy record. A hostname with no record is
// submittable with no embed and no domain reference.
type Domain struct {
	ID         int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Name       string `gorm:"type:varchar(253);not null;uniqueIndex:outpost_domains_ux1;column:name"`
	CanSubmit  bool   `gorm:"not null;default:true;column:can_submit"`
	ReasonCode int16  `gorm:"type:smallint;not null;default:0;column:reason_code"`
	EmbedType  string `gorm:"type:varchar(32);not null;default:'';column:embed_type"`
}

// TableName specifies the table name for Domain
func (Domain) TableName() string {
	return "outpost_domains"
}

// Domain ban reason codes
const (
	BanReasonNone      int16 = 0
	BanReasonShortener int16 = 1
	BanReasonSpam      int16 = 2
	BanReasonMalware   int16 = 3
	BanReasonPiracy    int16 = 4
	BanReasonGore      int16 = 5
	BanReasonCSAM      int16 = 6
)

var banReasons = map[int16]string{
	BanReasonShortener: "URL shorteners are not permitted.",
	BanReasonSpam:      "Domain is used primarily for spam.",
	BanReasonMalware:   "Domain distributes malware.",
	BanReasonPiracy:    "Domain hosts pirated content.",
	BanReasonGore:      "Domain hosts gratuitously violent content.",
	BanReasonCSAM:      "Domain hosts sexualized images of minors.",
}

// BanReason returns the user-visible description for a ban reason code.
func (d *Domain) BanReason() string {
	if reason, ok := banReasons[d.ReasonCode]; ok {
		return reason
	}
	return "This domain is banned."
}
