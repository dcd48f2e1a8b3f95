package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	nonSlugChars = regexp.MustCompile("[^a-z0-9-]")
	hyphenRuns   = regexp.MustCompile("-+")
)

// Slugify converts a string to a URL-friendly slug
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateQuoteReference formats a quote request reference, e.g. QR-000042
func GenerateQuoteReference(number int) string {
	return fmt.Sprintf("QR-%06d", number)
}

// OrderNumberPrefix returns the prefix shared by all order numbers of a year
func OrderNumberPrefix(year int) string {
	return fmt.Sprintf("ORD-%d-", year)
}

// NextOrderNumber returns the order number following last within year.
// An empty or malformed last number starts the sequence at 0001.
func NextOrderNumber(year int, last string) string {
	prefix := OrderNumberPrefix(year)
	next := 1
	if strings.HasPrefix(last, prefix) {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next)
}

// GeneratePaymentToken generates the token customers use to pay a quote
func GeneratePaymentToken(now time.Time) string {
	random := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return fmt.Sprintf("PAY-%d-%s", now.UnixMilli(), random)
}
