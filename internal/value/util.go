package value

import "strconv"

func parseStoredInt(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
