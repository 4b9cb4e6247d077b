package metrics

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
