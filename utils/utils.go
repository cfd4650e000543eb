package utils

import (
	"fmt"
	"strings"
)

// AddToLogMessage appends one entry to the request's log line.
func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {
	logMessagesBuilder.Grow(len(strToAdd) + 2)
	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";\n")
}

// FlushLog prints the collected request log, if any. Handlers defer it.
func FlushLog(logMessagesBuilder *strings.Builder) {
	if logMessagesBuilder.Len() > 0 {
		fmt.Println(logMessagesBuilder.String())
	}
}
