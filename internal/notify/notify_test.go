package notify

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"wallet-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func testNotification() models.EmailNotification {
	return models.EmailNotification{
		Recipient:       "alice@example.com",
		UserName:        "Alice Johnson",
		TransactionType: models.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(500),
		NewBalance:      decimal.NewFromInt(700),
		Description:     "salary <march>",
	}
}

func TestDefaultTemplates(t *testing.T) {
	subject, body, err := DefaultTemplates().Render(testNotification())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subject != "Your deposit was Successful" {
		t.Errorf("Unexpected subject %q", subject)
	}
	for _, want := range []string{"Alice Johnson", "500", "700", "salary &lt;march&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected body to contain %q", want)
		}
	}
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `
default:
  subject: "Wallet update: {{.TransactionType}}"
types:
  transfer:
    subject: "Transfer of {{.Amount}} completed"
    body: "<p>{{.UserName}} now has {{.NewBalance}}</p>"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write templates: %v", err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}

	subject, _, err := templates.Render(testNotification())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subject != "Wallet update: deposit" {
		t.Errorf("Unexpected default subject %q", subject)
	}

	params := testNotification()
	params.TransactionType = models.TransactionTypeTransfer
	subject, body, err := templates.Render(params)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subject != "Transfer of 500 completed" || body != "<p>Alice Johnson now has 700</p>" {
		t.Errorf("Unexpected transfer rendering %q / %q", subject, body)
	}
}

func TestLoadTemplates_Errors(t *testing.T) {
	if _, err := LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("default:\n  subject: \"{{.Broken\"\n"), 0o600); err != nil {
		t.Fatalf("Failed to write templates: %v", err)
	}
	if _, err := LoadTemplates(path); err == nil {
		t.Error("Expected error for invalid template")
	}
}

func TestLogNotifier(t *testing.T) {
	id, err := NewLogNotifier(nil).Send(context.Background(), "alice@example.com", testNotification())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if id == "" {
		t.Error("Expected a message id")
	}
}

// fakeSMTPServer accepts one session and records the DATA section
type fakeSMTPServer struct {
	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	rcpt     string
	data     string
}

func startFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	server := &fakeSMTPServer{listener: listener}
	server.wg.Add(1)
	go server.serve()
	return server
}

func (s *fakeSMTPServer) serve() {
	defer s.wg.Done()

	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	reply := func(line string) {
		_, _ = conn.Write([]byte(line + "\r\n"))
	}

	reply("220 localhost ESMTP")
	var data strings.Builder
	inData := false
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		if inData {
			if line == "." {
				inData = false
				s.mu.Lock()
				s.data = data.String()
				s.mu.Unlock()
				reply("250 OK queued")
				continue
			}
			data.WriteString(line + "\n")
			continue
		}

		command := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(command, "EHLO"), strings.HasPrefix(command, "HELO"):
			reply("250 localhost")
		case strings.HasPrefix(command, "MAIL FROM"):
			reply("250 OK")
		case strings.HasPrefix(command, "RCPT TO"):
			s.mu.Lock()
			s.rcpt = line
			s.mu.Unlock()
			reply("250 OK")
		case command == "DATA":
			inData = true
			reply("354 End data with <CR><LF>.<CR><LF>")
		case command == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

func TestSMTPNotifier_Send(t *testing.T) {
	server := startFakeSMTPServer(t)
	defer server.listener.Close()

	host, port, err := net.SplitHostPort(server.listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort failed: %v", err)
	}

	notifier, err := NewSMTPNotifier(models.NotificationConfig{SMTPHost: host, SMTPPort: port, From: "wallet@example.com"}, nil)
	if err != nil {
		t.Fatalf("NewSMTPNotifier failed: %v", err)
	}

	id, err := notifier.Send(context.Background(), "alice@example.com", testNotification())
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	server.wg.Wait()

	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@"+host+">") {
		t.Errorf("Unexpected message id %q", id)
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	if !strings.Contains(server.rcpt, "alice@example.com") {
		t.Errorf("Unexpected recipient %q", server.rcpt)
	}
	if !strings.Contains(server.data, "Subject: Your deposit was Successful") {
		t.Errorf("Expected subject header in message, got:\n%s", server.data)
	}
	if !strings.Contains(server.data, "Message-ID: "+id) {
		t.Errorf("Expected message id header in message")
	}
}

func TestNewSMTPNotifier_Validation(t *testing.T) {
	if _, err := NewSMTPNotifier(models.NotificationConfig{}, nil); err == nil {
		t.Error("Expected error for empty host")
	}
	if _, err := NewSMTPNotifier(models.NotificationConfig{SMTPHost: "smtp.example.com"}, nil); err == nil {
		t.Error("Expected error for missing sender")
	}
}
