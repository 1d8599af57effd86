package course

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is an issued, publicly verifiable completion record
type Certificate struct {
	gorm.Model
	UserID   uint  `json:"user_id" gorm:"index;not null"`
	CourseID uint  `json:"course_id" gorm:"index;not null"`
	ModuleID *uint `json:"module_id" gorm:"index"`

	Type        string `json:"type" gorm:"default:'course'"` // course or module
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`

	VerificationCode string `json:"verification_code" gorm:"type:varchar(32);uniqueIndex"`
	QRCode           string `json:"qr_code" gorm:"type:text"` // data URL, rendered by clients
	CertificateURL   string `json:"certificate_url"`          // public path of the generated PDF

	IssuerName     string    `json:"issuer_name" gorm:"default:'AprendiMoz'"`
	CompletionDate time.Time `json:"completion_date"`
	IsRevoked      bool      `json:"is_revoked" gorm:"default:false"`
	IsDeleted      bool      `gorm:"default:false" json:"-"`
}

// Certificate job statuses
const (
	CertJobPending = "pending"
	CertJobDone    = "done"
	CertJobFailed  = "failed"
)

// CertificateJob is an outbox row queued when an enrollment completes.
// Issuance runs out of band so a slow or failing PDF render never blocks
// the progress update that triggered it.
type CertificateJob struct {
	gorm.Model
	EnrollmentID uint      `json:"enrollment_id" gorm:"index;not null"`
	Status       string    `json:"status" gorm:"default:'pending';index"`
	Attempts     int       `json:"attempts" gorm:"default:0"`
	LastError    string    `json:"last_error" gorm:"type:text"`
	NextRunAt    time.Time `json:"next_run_at" gorm:"index"`
}
