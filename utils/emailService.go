package utils

import (
	"aprendimoz/config"
	courseModels "aprendimoz/models/course"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail delivers a transactional email through SendGrid. Without an API
// key it logs and drops the message, so local and test runs stay offline.
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	apiKey := config.AppConfig.SendgridApiKey
	if apiKey == "" {
		log.Printf("[EMAIL] SENDGRID_API_KEY not set, skipping email %q to %s", subject, toEmail)
		return nil
	}

	from := mail.NewEmail("AprendiMoz", config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		log.Printf("[EMAIL] Error sending %q to %s: %v", subject, toEmail, err)
		return err
	}
	if response.StatusCode >= 400 {
		log.Printf("[EMAIL] SendGrid rejected %q to %s: status=%d body=%s", subject, toEmail, response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	return nil
}

func getEmailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #00004D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #00004D; line-height: 1.6; }
			.content h2 { color: #00004D; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #d7b56d; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #d7b56d; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>APRENDIMOZ</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 AprendiMoz. Todos os direitos reservados.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// SendWelcomeEmail greets a freshly registered user
func SendWelcomeEmail(email, name string) {
	subject := "Bem-vindo a AprendiMoz"
	body := fmt.Sprintf(`
		<p>Caro(a) %s,</p>
		<p>Bem-vindo(a) a <strong>AprendiMoz</strong>! Estamos muito felizes por ter voce connosco.</p>
		<p>A sua conta foi criada com sucesso. Explore o nosso catalogo de cursos e comece a aprender hoje mesmo.</p>
		<p>Se tiver alguma duvida, a nossa equipa de suporte esta sempre disponivel.</p>
	`, name)

	go SendEmail(email, name, subject, getEmailTemplate("Bem-vindo(a)!", body))
}

// SendEnrollmentEmail confirms a new course enrollment
func SendEnrollmentEmail(email, name, courseTitle string) {
	subject := "Inscricao Confirmada: " + courseTitle
	body := fmt.Sprintf(`
		<p>Caro(a) %s,</p>
		<p>A sua inscricao no curso <strong>%s</strong> foi confirmada.</p>
		<p>Ja pode aceder a todo o conteudo do curso. Complete todas as licoes para receber o seu certificado.</p>
		<div class="info-box">
			<strong>Proximo passo:</strong> abra o painel do curso e comece pela primeira licao.
		</div>
	`, name, courseTitle)

	go SendEmail(email, name, subject, getEmailTemplate("Inscricao Confirmada", body))
}

// SendPaymentReceiptEmail confirms a settled payment
func SendPaymentReceiptEmail(email, name, reference string, amount float64) {
	subject := "Pagamento Recebido"
	body := fmt.Sprintf(`
		<p>Caro(a) %s,</p>
		<p>Recebemos o seu pagamento de <strong>%.2f MZN</strong>.</p>
		<div class="info-box">
			<strong>Referencia:</strong> %s
		</div>
		<p>Guarde esta referencia para qualquer questao sobre a transacao.</p>
	`, name, amount, reference)

	go SendEmail(email, name, subject, getEmailTemplate("Pagamento Confirmado", body))
}

// NotifyCertificateIssued announces a freshly issued certificate. Matches the
// services.CertificateNotifier signature so it can be wired at startup.
func NotifyCertificateIssued(email, name string, cert *courseModels.Certificate) {
	subject := "O seu certificado esta pronto"
	verifyURL := fmt.Sprintf("%s/verify/%s", config.AppConfig.BaseURL, cert.VerificationCode)
	body := fmt.Sprintf(`
		<p>Caro(a) %s,</p>
		<p>Parabens! O seu certificado <strong>%s</strong> foi emitido.</p>
		<div class="info-box">
			<strong>Codigo de verificacao:</strong> %s
		</div>
		<p>Qualquer pessoa pode confirmar a autenticidade do certificado atraves do codigo acima.</p>
		<a href="%s" class="btn">Ver Certificado</a>
	`, name, cert.Title, cert.VerificationCode, verifyURL)

	go SendEmail(email, name, subject, getEmailTemplate("Certificado Emitido", body))
}
