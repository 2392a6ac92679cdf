package provider

import "strings"

// parseAddress splits a US-style formatted address such as
// "1 Main St, Austin, TX 78701, USA" into its parts.
func parseAddress(addr string) (street, city, state, zip string) {
	var parts []string
	for _, p := range strings.Split(addr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", "", ""
	}

	for i := len(parts) - 1; i >= 1; i-- {
		if s, z := parseStateZip(parts[i]); s != "" {
			city = parts[i-1]
			if i >= 2 {
				street = strings.Join(parts[:i-1], ", ")
			}
			return street, city, s, z
		}
	}
	return "", parts[len(parts)-2], "", ""
}

func parseStateZip(s string) (state, zip string) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields[0]) != 2 || !isUpperAlpha(fields[0]) {
		return "", ""
	}
	if len(fields) >= 2 && isZipCode(fields[1]) {
		zip = fields[1]
	}
	return fields[0], zip
}

func isUpperAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// isZipCode accepts 12345 and 12345-6789.
func isZipCode(s string) bool {
	if len(s) != 5 && len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 5 {
			if s[i] != '-' {
				return false
			}
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
