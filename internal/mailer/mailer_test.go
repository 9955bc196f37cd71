package mailer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/config"

	"github.com/stretchr/testify/require"
)

func testConfig(port int) config.EmailConfig {
	return config.EmailConfig{
		FromEmail:   "tracker@example.com",
		ToEmail:     "owner@example.com",
		AppPassword: "abcd efgh ijkl mnop",
		Server:      "127.0.0.1",
		Port:        port,
	}
}

func TestMessage(t *testing.T) {
	m := NewSMTP(testConfig(587), &telemetry.Recorder{})

	mail := m.Message("Shipment Update - Dubai", "body text")
	require.Equal(t, "tracker@example.com", mail.From)
	require.Equal(t, []string{"owner@example.com"}, mail.To)
	require.Equal(t, "Shipment Update - Dubai", mail.Subject)
	require.Equal(t, "body text", string(mail.Text))
	require.Empty(t, mail.HTML)

	raw, err := mail.Bytes()
	require.NoError(t, err)
	require.Contains(t, string(raw), "Content-Type: text/plain")
	require.True(t, strings.Contains(string(raw), "body text"))
	require.Equal(t, "127.0.0.1:587", m.Addr())
}

func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestSendFailureIsReported(t *testing.T) {
	rec := &telemetry.Recorder{}
	m := NewSMTP(testConfig(closedPort(t)), rec)

	err := m.Send(context.Background(), "subject", "body")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotify))
	require.Equal(t, []string{"mailer: " + report_mailer_send}, rec.Broken())
}

func TestSendCancelledContext(t *testing.T) {
	rec := &telemetry.Recorder{}
	m := NewSMTP(testConfig(587), rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, "subject", "body")
	require.True(t, errors.Is(err, ErrNotify))
	require.True(t, errors.Is(err, context.Canceled))
	require.Len(t, rec.Broken(), 1)
}

func TestNewSMTPRequiresAddresses(t *testing.T) {
	cfg := testConfig(587)
	cfg.ToEmail = ""
	require.Panics(t, func() {
		NewSMTP(cfg, &telemetry.Recorder{})
	})
}

type smtpSession struct {
	tls  bool
	auth string
	from string
	rcpt []string
	data string
}

// startSMTPServer accepts a single STARTTLS session on a local port. The
// server certificate is valid for 127.0.0.1 and trusted by the returned pool.
func startSMTPServer(t *testing.T) (int, *x509.CertPool, <-chan smtpSession) {
	t.Helper()

	certSrv := httptest.NewTLSServer(http.NotFoundHandler())
	certSrv.Close()
	pool := x509.NewCertPool()
	pool.AddCert(certSrv.Certificate())
	serverTLS := &tls.Config{Certificates: certSrv.TLS.Certificates}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	done := make(chan smtpSession, 1)
	go func() {
		var s smtpSession
		defer func() { done <- s }()

		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(10 * time.Second))

		tp := textproto.NewConn(conn)
		tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb, arg, _ := strings.Cut(line, " ")
			switch strings.ToUpper(verb) {
			case "EHLO", "HELO":
				if s.tls {
					tp.PrintfLine("250-localhost\r\n250 AUTH PLAIN")
				} else {
					tp.PrintfLine("250-localhost\r\n250-STARTTLS\r\n250 AUTH PLAIN")
				}
			case "STARTTLS":
				tp.PrintfLine("220 ready")
				tlsConn := tls.Server(conn, serverTLS)
				if tlsConn.Handshake() != nil {
					return
				}
				tp = textproto.NewConn(tlsConn)
				s.tls = true
			case "AUTH":
				_, encoded, _ := strings.Cut(arg, " ")
				raw, _ := base64.StdEncoding.DecodeString(encoded)
				s.auth = string(raw)
				tp.PrintfLine("235 accepted")
			case "MAIL":
				s.from = arg
				tp.PrintfLine("250 ok")
			case "RCPT":
				s.rcpt = append(s.rcpt, arg)
				tp.PrintfLine("250 ok")
			case "DATA":
				tp.PrintfLine("354 go ahead")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				s.data = string(data)
				tp.PrintfLine("250 queued")
			case "QUIT":
				tp.PrintfLine("221 bye")
				return
			default:
				tp.PrintfLine("250 ok")
			}
		}
	}()

	return l.Addr().(*net.TCPAddr).Port, pool, done
}

func TestSendDeliversOverStartTLS(t *testing.T) {
	port, pool, sessions := startSMTPServer(t)

	rec := &telemetry.Recorder{}
	m := NewSMTP(testConfig(port), rec)
	m.TLSConfig = &tls.Config{ServerName: "127.0.0.1", RootCAs: pool}

	err := m.Send(context.Background(), "Shipment Update - Dubai", "body text")
	require.NoError(t, err)
	require.Empty(t, rec.Broken())

	var s smtpSession
	select {
	case s = <-sessions:
	case <-time.After(10 * time.Second):
		t.Fatal("smtp session did not finish")
	}

	require.True(t, s.tls)
	require.Equal(t, "\x00tracker@example.com\x00abcd efgh ijkl mnop", s.auth)
	require.Equal(t, "FROM:<tracker@example.com>", s.from)
	require.Equal(t, []string{"TO:<owner@example.com>"}, s.rcpt)
	require.Contains(t, s.data, "Subject: Shipment Update - Dubai")
	require.Contains(t, s.data, "body text")
}

func TestSendUntrustedCertificate(t *testing.T) {
	port, _, sessions := startSMTPServer(t)

	rec := &telemetry.Recorder{}
	m := NewSMTP(testConfig(port), rec)

	err := m.Send(context.Background(), "subject", "body")
	require.ErrorIs(t, err, ErrNotify)
	require.Equal(t, []string{"mailer: " + report_mailer_send}, rec.Broken())

	s := <-sessions
	require.False(t, s.tls)
	require.Empty(t, s.data)
}
