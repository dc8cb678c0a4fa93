// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// DBErrorType represents the category of a database connection failure
type DBErrorType int

const (
	DBErrorUnknown DBErrorType = iota
	DBErrorRefused
	DBErrorAuth
	DBErrorTimeout
	DBErrorMissingDatabase
	DBErrorFile
)

// ClassifyDBError categorizes a driver error message from pgx or sqlite.
func ClassifyDBError(errMsg string) DBErrorType {
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return DBErrorRefused
	case strings.Contains(lower, "password authentication failed"), strings.Contains(lower, "28p01"):
		return DBErrorAuth
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return DBErrorTimeout
	case strings.Contains(lower, "3d000"), strings.Contains(lower, "database") && strings.Contains(lower, "does not exist"):
		return DBErrorMissingDatabase
	case strings.Contains(lower, "unable to open database file"), strings.Contains(lower, "out of memory (14)"):
		return DBErrorFile
	}
	return DBErrorUnknown
}

// FormatDBError renders a connection failure with troubleshooting hints.
func FormatDBError(errMsg string) string {
	var b strings.Builder

	b.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Database Unavailable"))
	b.WriteString("\n\n")

	switch ClassifyDBError(errMsg) {
	case DBErrorRefused:
		b.WriteString("The database server refused the connection.\n")
		b.WriteString("Check that:\n")
		b.WriteString("  • The database container or service is running\n")
		b.WriteString("  • Host and port in DATABASE_URL are correct\n")
	case DBErrorAuth:
		b.WriteString("The database rejected the credentials.\n")
		b.WriteString("  • Verify the user and password in DATABASE_URL\n")
		b.WriteString("  • Run 'gridwatch connect' to store a new connection string\n")
	case DBErrorTimeout:
		b.WriteString("The database did not answer in time.\n")
		b.WriteString("  • The server may still be starting; gridwatch retries automatically\n")
	case DBErrorMissingDatabase:
		b.WriteString("The database named in DATABASE_URL does not exist.\n")
		b.WriteString("  • Create it, for example: createdb football_analytics\n")
	case DBErrorFile:
		b.WriteString("The SQLite database file could not be opened.\n")
		b.WriteString("  • Check that the directory exists and is writable\n")
	default:
		b.WriteString("gridwatch could not reach its database.\n")
	}

	b.WriteString("\n")
	b.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'gridwatch dbinfo' to see which database is configured"))
	b.WriteString("\n")

	if strings.TrimSpace(errMsg) != "" {
		b.WriteString("\n")
		b.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}
	return b.String()
}

// PresentDBError prints FormatDBError for err.
func PresentDBError(err error) {
	if err == nil {
		return
	}
	fmt.Println()
	fmt.Println(FormatDBError(err.Error()))
	fmt.Println()
}
