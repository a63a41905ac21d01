package validator

// cpfLength is the length of a CPF written as 000.000.000-00.
const cpfLength = 14

// IsFormattedCPF reports whether s looks like a formatted CPF: exactly 14
// characters, each a digit, '.' or '-'. Check digits are not verified.
func IsFormattedCPF(s string) bool {
	if len(s) != cpfLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && c != '-' {
			return false
		}
	}
	return true
}
