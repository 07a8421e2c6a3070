package version

const Value = "0.3.0"

func UserAgent() string {
	return "dpscan/" + Value + " (dark pattern scanner)"
}
