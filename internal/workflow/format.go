package workflow

import "strconv"

// FormatRequestID renders the display id of a request, e.g. REQ-42.
func FormatRequestID(id int64) string {
	return "REQ-" + strconv.FormatInt(id, 10)
}
