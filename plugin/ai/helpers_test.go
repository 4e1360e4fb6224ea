package ai

import "fmt"

func jsonf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
