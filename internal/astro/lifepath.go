package astro

// LifePath reduces a date string to its life-path number.
//
// Separators ('-' and '/') and any other non-digit runes are ignored. Digits
// are summed repeatedly until the value is a single digit or one of the
// master numbers 11, 22 and 33. A string with no digits yields 0.
func LifePath(dob string) int {
	sum := 0
	for _, r := range dob {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	for sum > 9 && !isMasterNumber(sum) {
		sum = digitSum(sum)
	}
	return sum
}

func isMasterNumber(n int) bool {
	return n == 11 || n == 22 || n == 33
}

func digitSum(n int) int {
	s := 0
	for n > 0 {
		s += n % 10
		n /= 10
	}
	return s
}

// LifePathSummary describes a life-path number. Values outside the table use
// the summary for 1.
func LifePathSummary(n int) string {
	if s, ok := lifePathSummaries[n]; ok {
		return s
	}
	return lifePathSummaries[1]
}

// IsValidLifePath reports whether n is a value LifePath can produce for a
// non-empty date.
func IsValidLifePath(n int) bool {
	return (n >= 1 && n <= 9) || isMasterNumber(n)
}
