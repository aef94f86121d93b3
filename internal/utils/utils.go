package utils

// IsValidPhone checks a customer mobile number: either a local number
// (0 followed by nine digits) or an international one (233 prefix with
// an optional leading +).
func IsValidPhone(number string) bool {
	if len(number) == 0 {
		return false
	}

	if number[0] == '+' {
		number = number[1:]
	}

	if len(number) == 12 && number[0] == '2' && number[1] == '3' && number[2] == '3' {
		return allDigits(number)
	}

	return len(number) == 10 && number[0] == '0' && allDigits(number)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
