package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/xela-labs/automidireset/internal/pkg/logger"
)

type TimeNanosecond time.Time

func (j *TimeNanosecond) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*j = TimeNanosecond(time.Unix(0, v))
	return nil
}

func (j TimeNanosecond) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(j))
}

type Entry struct {
	Ts     TimeNanosecond `json:"ts"`
	Caller string         `json:"caller"`
	Msg    string         `json:"msg"`
	Level  int            `json:"level"`
}

func unpack(data []byte) (Entry, error) {
	var v Entry
	err := json.Unmarshal(data, &v)
	return v, err
}

// showConsoleMsg renders the plugin log stream, everything the plugin emits
// arrives here as one encoded entry per call.
func (h *consoleHost) showConsoleMsg(text string) {
	entry, err := unpack([]byte(strings.TrimSpace(text)))
	if err != nil {
		fmt.Print(text)
		return
	}
	if entry.Level > h.logLevel {
		return
	}
	fmt.Println(prepareString(entry, h.au))
}

func prepareString(e Entry, au aurora.Aurora) string {
	ts := time.Time(e.Ts).Format("15:04:05.000")

	var msg aurora.Value
	switch e.Level {
	case logger.ErrorLvl:
		msg = au.Red(e.Msg)
	case logger.WarningLvl:
		msg = au.Yellow(e.Msg)
	case logger.DebugLvl:
		msg = au.Gray(11, e.Msg)
	default:
		msg = au.White(e.Msg)
	}

	return fmt.Sprintf("%s %s", au.Gray(15, ts), msg)
}
