package log

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err == nil {
		logger.SetLevel(level)
	}
}

// Logger exposes the underlying logger, mainly so tests can silence or capture it.
func Logger() *logrus.Logger {
	return logger
}

func Print(c *fiber.Ctx) *logrus.Entry {
	if c == nil {
		return logger.WithFields(logrus.Fields{})
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	fields := logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	}
	if v, ok := c.Locals("request_id").(string); ok && v != "" {
		fields["request_id"] = v
	}
	return logger.WithFields(fields)
}

// Number returns an entry scoped to one normalization of a raw phone input.
func Number(raw string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component": "number",
		"raw":       MaskPhone(raw),
	})
}

// Probe returns an entry scoped to one probe of a candidate identifier.
func Probe(identifier string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component": "probe",
		"candidate": MaskPhone(identifier),
	})
}

func Queue() *logrus.Entry {
	return logger.WithField("component", "queue")
}

func Session() *logrus.Entry {
	return logger.WithField("component", "whatsapp")
}

// MaskPhone hides the last four digits of a phone number or identifier.
func MaskPhone(s string) string {
	user, server, found := strings.Cut(s, "@")
	runes := []rune(user)
	if len(runes) < 4 {
		return s
	}
	masked := string(runes[:len(runes)-4]) + "xxxx"
	if found {
		return masked + "@" + server
	}
	return masked
}
