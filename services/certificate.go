package services

import (
	"aprendimoz/models"
	courseModels "aprendimoz/models/course"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// CertificateNotifier is invoked after successful issuance, outside any
// transaction. Failures are logged, never propagated.
type CertificateNotifier func(email, name string, cert *courseModels.Certificate)

// CertificateService mints verifiable completion certificates: a unique
// verification code, a QR code pointing at the public verify URL, and a PDF
// rendered under the static directory.
type CertificateService struct {
	db       *gorm.DB
	baseURL  string
	certDir  string
	issuer   string
	Notifier CertificateNotifier
}

func NewCertificateService(db *gorm.DB, baseURL, certDir string) *CertificateService {
	return &CertificateService{
		db:      db,
		baseURL: baseURL,
		certDir: certDir,
		issuer:  "AprendiMoz",
	}
}

// Generate issues the certificate for a completed enrollment. It is
// idempotent: an existing certificate for the same (user, course) is
// returned as-is.
func (s *CertificateService) Generate(enrollmentID uint) (*courseModels.Certificate, error) {
	var enrollment courseModels.Enrollment
	if err := s.db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: enrollment %d", ErrNotFound, enrollmentID)
		}
		return nil, err
	}

	if enrollment.Progress < 100 {
		return nil, fmt.Errorf("%w: course must be completed before certificate issuance", ErrInvalidState)
	}

	var existing courseModels.Certificate
	err := s.db.Where("user_id = ? AND course_id = ? AND type = ? AND is_revoked = ?",
		enrollment.UserID, enrollment.CourseID, "course", false).First(&existing).Error
	if err == nil {
		if enrollment.CertificateID == nil {
			s.db.Model(&enrollment).UpdateColumn("certificate_id", existing.ID)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user models.User
	if err := s.db.Where("id = ?", enrollment.UserID).First(&user).Error; err != nil {
		return nil, err
	}
	var course courseModels.Course
	if err := s.db.Where("id = ?", enrollment.CourseID).First(&course).Error; err != nil {
		return nil, err
	}

	code := generateVerificationCode()
	verifyURL := fmt.Sprintf("%s/verify/%s", s.baseURL, code)

	qrPNG, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %v", err)
	}

	completedAt := time.Now()
	if enrollment.CompletedAt != nil {
		completedAt = *enrollment.CompletedAt
	}

	pdfPath := filepath.Join(s.certDir, code+".pdf")
	if err := s.renderPDF(pdfPath, user.FullName, course.Title, completedAt, code, qrPNG); err != nil {
		return nil, err
	}

	certificate := courseModels.Certificate{
		UserID:           enrollment.UserID,
		CourseID:         enrollment.CourseID,
		Type:             "course",
		Title:            fmt.Sprintf("Certificado de Conclusão - %s", course.Title),
		Description:      fmt.Sprintf("Este certificado confirma que %s concluiu com sucesso o curso \"%s\"", user.FullName, course.Title),
		VerificationCode: code,
		QRCode:           "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
		CertificateURL:   "/certificates/" + code + ".pdf",
		IssuerName:       s.issuer,
		CompletionDate:   completedAt,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&certificate).Error; err != nil {
			return err
		}
		return tx.Model(&enrollment).UpdateColumn("certificate_id", certificate.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier(user.Email, user.FullName, &certificate)
	}

	return &certificate, nil
}

// Verify resolves a verification code to its certificate. Revoked and
// unknown codes are both reported as not found.
func (s *CertificateService) Verify(code string) (*courseModels.Certificate, error) {
	var certificate courseModels.Certificate
	err := s.db.Where("verification_code = ? AND is_revoked = ? AND is_deleted = ?",
		strings.ToUpper(strings.TrimSpace(code)), false, false).First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: certificate %s", ErrNotFound, code)
		}
		return nil, err
	}
	return &certificate, nil
}

// ListForUser returns the user's issued certificates, newest first
func (s *CertificateService) ListForUser(userID uint) ([]courseModels.Certificate, error) {
	var certificates []courseModels.Certificate
	err := s.db.Where("user_id = ? AND is_revoked = ? AND is_deleted = ?", userID, false, false).
		Order("created_at DESC").Find(&certificates).Error
	if err != nil {
		return nil, err
	}
	return certificates, nil
}

const certJobMaxAttempts = 5

// ProcessPendingJobs drains the certificate outbox. Issuance failures are
// retried with backoff and never touch the enrollment that queued them.
func (s *CertificateService) ProcessPendingJobs(limit int) {
	var jobs []courseModels.CertificateJob
	err := s.db.Where("status = ? AND next_run_at <= ?", courseModels.CertJobPending, time.Now()).
		Order("created_at ASC").Limit(limit).Find(&jobs).Error
	if err != nil {
		log.Printf("[CERT-WORKER] Error fetching pending jobs: %v", err)
		return
	}

	for i := range jobs {
		job := &jobs[i]

		if _, err := s.Generate(job.EnrollmentID); err != nil {
			job.Attempts++
			job.LastError = err.Error()
			if job.Attempts >= certJobMaxAttempts {
				job.Status = courseModels.CertJobFailed
				log.Printf("[CERT-WORKER] Job %d failed permanently after %d attempts: %v", job.ID, job.Attempts, err)
			} else {
				job.NextRunAt = time.Now().Add(time.Duration(job.Attempts) * 2 * time.Minute)
				log.Printf("[CERT-WORKER] Job %d failed (attempt %d), retrying at %s: %v", job.ID, job.Attempts, job.NextRunAt.Format(time.RFC3339), err)
			}
		} else {
			job.Status = courseModels.CertJobDone
		}

		if err := s.db.Save(job).Error; err != nil {
			log.Printf("[CERT-WORKER] Error saving job %d: %v", job.ID, err)
		}
	}
}

func (s *CertificateService) renderPDF(path, studentName, courseTitle string, completedAt time.Time, code string, qrPNG []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %v", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	// page frame
	pdf.SetLineWidth(1.2)
	pdf.SetDrawColor(0, 0, 77)
	pdf.Rect(8, 8, 281, 194, "D")

	pdf.SetFont("Helvetica", "B", 32)
	pdf.SetTextColor(0, 0, 77)
	pdf.SetY(36)
	pdf.CellFormat(0, 14, "Certificado de Conclusao", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.Ln(10)
	pdf.CellFormat(0, 8, "Este certificado e atribuido a", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
	pdf.CellFormat(0, 12, studentName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, "pela conclusao do curso", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
	pdf.CellFormat(0, 10, courseTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.Ln(6)
	pdf.CellFormat(0, 8, "Emitido por "+s.issuer+" em "+completedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr-"+code, opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr-"+code, 248, 158, 32, 32, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(12, 190)
	pdf.CellFormat(0, 6, "Codigo de verificacao: "+code, "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write certificate PDF: %v", err)
	}
	return nil
}

func generateVerificationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}
