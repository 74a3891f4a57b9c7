package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"pdam_pelanggan_backend/internals/features/registrasi/registrasi/model"
)

// Notifier dipanggil setelah transaksi approve/reject commit.
type Notifier interface {
	Approved(ctx context.Context, r model.RegistrasiModel, idPelanggan string) error
	Rejected(ctx context.Context, r model.RegistrasiModel) error
}

type NopNotifier struct{}

func (NopNotifier) Approved(context.Context, model.RegistrasiModel, string) error { return nil }
func (NopNotifier) Rejected(context.Context, model.RegistrasiModel) error         { return nil }

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// MailNotifier mengirim email ke pemohon lewat SMTP.
type MailNotifier struct {
	Dialer *gomail.Dialer
	From   string
	Log    *zap.Logger
}

// NewNotifier: tanpa SMTP_HOST → NopNotifier.
func NewNotifier(cfg SMTPConfig, log *zap.Logger) Notifier {
	if cfg.Host == "" {
		return NopNotifier{}
	}
	return &MailNotifier{
		Dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		From:   cfg.From,
		Log:    log,
	}
}

func (n *MailNotifier) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := n.Dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}

func (n *MailNotifier) Approved(_ context.Context, r model.RegistrasiModel, idPelanggan string) error {
	if r.Email == nil {
		return nil
	}
	body := fmt.Sprintf(
		"Yth. %s,\n\nPermohonan sambungan baru dengan nomor %s telah DISETUJUI.\nID Pelanggan (No SL) Anda: %s.\n\nPetugas kami akan menghubungi Anda untuk jadwal pemasangan.\n",
		r.NamaPelanggan, r.NoRegistrasi, idPelanggan,
	)
	return n.send(*r.Email, "Registrasi "+r.NoRegistrasi+" disetujui", body)
}

func (n *MailNotifier) Rejected(_ context.Context, r model.RegistrasiModel) error {
	if r.Email == nil {
		return nil
	}
	reason := ""
	if r.RejectedReason != nil {
		reason = *r.RejectedReason
	}
	body := fmt.Sprintf(
		"Yth. %s,\n\nPermohonan sambungan baru dengan nomor %s DITOLAK.\nAlasan: %s\n",
		r.NamaPelanggan, r.NoRegistrasi, reason,
	)
	return n.send(*r.Email, "Registrasi "+r.NoRegistrasi+" ditolak", body)
}
