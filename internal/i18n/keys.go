package i18n

// Message keys shared between code and the embedded catalogs.
const (
	EmailVerificationSubject = "notification.email.verification.subject"
	EmailVerificationBody    = "notification.email.verification.body"
)
