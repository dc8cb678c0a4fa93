// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors renders nflverse download failures for the terminal.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	apperrors "gridwatch/internal/errors"
	"gridwatch/internal/logging"

	"github.com/pterm/pterm"
)

// Category is the kind of network failure.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	Refused
	TLS
	Server
	Missing
)

// Classify sorts err into a Category.
func Classify(err error) Category {
	switch {
	case err == nil:
		return Generic
	case apperrors.Is(err, apperrors.NotFound):
		return Missing
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isSSLError(err):
		return TLS
	case isServerError(err.Error()):
		return Server
	}
	return Generic
}

// FormatNetworkError prints a troubleshooting block for an nflverse failure
// and returns err wrapped for logging.
func FormatNetworkError(err error, context string) error {
	if err == nil {
		return nil
	}
	displayErrorMessage(err, context)
	return fmt.Errorf("network error: %w", err)
}

func displayErrorMessage(err error, context string) {
	switch Classify(err) {
	case Missing:
		pterm.Printf("📭 nflverse has not published this data yet (%s)\n", context)
		pterm.Println()
		pterm.Println("  • " + apperrors.MessageOf(err))
		pterm.Println("  • Run 'gridwatch probe' to see which seasons are available")
		pterm.Println()
	case Timeout:
		pterm.Printf("⏱️  Timed out while %s\n", context)
		pterm.Println()
		pterm.Println("The weekly stats files are several megabytes. Try:")
		pterm.Println("  • Raising HTTP_TIMEOUT (for example HTTP_TIMEOUT=90s)")
		pterm.Println("  • Checking your connection speed")
		pterm.Println()
	case DNS:
		pterm.Printf("🌐 Cannot resolve the nflverse host while %s\n", context)
		pterm.Println()
		pterm.Println("  • Check your internet connection and DNS settings")
		pterm.Println("  • Verify NFLVERSE_BASE_URL")
		pterm.Println()
	case Refused:
		pterm.Printf("🚫 Connection refused while %s\n", context)
		pterm.Println()
		pterm.Println("  • Verify NFLVERSE_BASE_URL points to a reachable server")
		pterm.Println("  • A proxy or firewall may be blocking GitHub downloads")
		pterm.Println()
	case TLS:
		pterm.Printf("🔒 Secure connection failed while %s\n", context)
		pterm.Println()
		pterm.Println("  • Check your system date and time")
		pterm.Println("  • Verify network proxy settings")
		pterm.Println()
	case Server:
		pterm.Printf("⚠️  The download server failed while %s\n", context)
		pterm.Println()
		pterm.Println("GitHub release downloads are occasionally unavailable.")
		pterm.Println("  • gridwatch keeps the previously imported data")
		pterm.Println("  • Try again in a few minutes")
		pterm.Println()
	default:
		pterm.Printf("❌ Cannot download nflverse data while %s\n", context)
		pterm.Println()
		if details := logging.Mask(err.Error()); details != "" {
			if len(details) > 100 {
				details = details[:100] + "..."
			}
			pterm.Debug.Printf("Technical details: %s\n", details)
			pterm.Println()
		}
	}
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks for 5xx statuses in the error text.
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	for _, code := range []string{"status 500", "status 502", "status 503", "status 504"} {
		if strings.Contains(lower, code) {
			return true
		}
	}
	return strings.Contains(lower, "bad gateway") || strings.Contains(lower, "service unavailable")
}

// ExtractHostFromURL returns the host of urlStr for messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
