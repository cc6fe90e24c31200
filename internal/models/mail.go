package models

// MailMessage письмо, передаваемое через очередь воркеру рассылки.
type MailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
