package models

import (
	"encoding/json"
	"strconv"
	"time"
)

const AgeUnavailable = "unavailable"

// Age is a whole number of years, or unknown when the date of birth is
// missing. It marshals to a JSON number or the string "unavailable".
type Age struct {
	Years int
	Known bool
}

// AgeAt computes the age at now of someone born on dob. The year count is the
// UTC year of the epoch shifted by the elapsed time, minus 1970, so every
// caller agrees to the day.
func AgeAt(dob, now time.Time) Age {
	if dob.IsZero() {
		return Age{}
	}
	elapsed := now.Sub(dob)
	years := time.Unix(0, 0).UTC().Add(elapsed).Year() - 1970
	if years < 0 {
		years = -years
	}
	return Age{Years: years, Known: true}
}

// ParseAge computes the age from a textual date of birth, accepting plain
// dates and RFC 3339 timestamps. Unparseable input yields an unknown age.
func ParseAge(dob string, now time.Time) Age {
	t, err := ParseDate(dob)
	if err != nil {
		return Age{}
	}
	return AgeAt(t, now)
}

func (a Age) String() string {
	if !a.Known {
		return AgeUnavailable
	}
	return strconv.Itoa(a.Years)
}

func (a Age) MarshalJSON() ([]byte, error) {
	if !a.Known {
		return json.Marshal(AgeUnavailable)
	}
	return json.Marshal(a.Years)
}

func (a *Age) UnmarshalJSON(b []byte) error {
	var years int
	if err := json.Unmarshal(b, &years); err == nil {
		*a = Age{Years: years, Known: true}
		return nil
	}
	*a = Age{}
	return nil
}
