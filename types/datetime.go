package types

import (
	"fmt"
	"strconv"

	"github.com/nhollis/hl7toolkit/internal/regexcache"
)

// dateTimePattern accepts the HL7 DTM/DT/TM grammar:
// YYYY[MM[DD[HH[MM[SS]]]]][.frac][±HHMM]
const dateTimePattern = `^(\d{4})(\d{2})?(\d{2})?(\d{2})?(\d{2})?(\d{2})?(?:\.(\d+))?([+-]\d{4})?$`

// DateTime is the HL7 v2.x date/time primitive. Precision is implied by
// which fields were populated from the source string (HL7 2A.3.22): a bare
// year carries only Year; a full timestamp carries through Second and
// Microseconds.
type DateTime struct {
	Year         uint16
	Month        uint8
	Day          uint8
	Hour         uint8
	Minute       uint8
	Second       uint8
	Microseconds uint32
	Offset       string // signed UTC offset, e.g. "-0500"; "" if not specified

	precisionDigits int
}

// EpochDateTime returns the HL7 epoch default: 1970-01-01T00:00:00+00:00.
func EpochDateTime() DateTime {
	return DateTime{Year: 1970, Month: 1, Day: 1, Offset: "+0000", precisionDigits: 8}
}

// ParseDateTime parses a DTM/DT/TM-grammar string. For TM values the caller
// is expected to have already prefixed the date portion with "19700101"
// per C2's rule; callers should use CastTM for that behavior.
func ParseDateTime(raw string) (DateTime, error) {
	re := regexcache.MustCompile(dateTimePattern)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return DateTime{}, fmt.Errorf("%w: does not match HL7 datetime grammar", ErrTypeCastFailed)
	}

	dt := DateTime{Year: 0, Month: 1, Day: 1}

	year, _ := strconv.Atoi(m[1])
	dt.Year = uint16(year)
	digits := 4

	setField := func(group string, target *uint8, digitsIfSet int) {
		if group == "" {
			return
		}
		v, _ := strconv.Atoi(group)
		*target = uint8(v)
		digits = digitsIfSet
	}

	setField(m[2], &dt.Month, 6)
	setField(m[3], &dt.Day, 8)
	setField(m[4], &dt.Hour, 10)
	setField(m[5], &dt.Minute, 12)
	setField(m[6], &dt.Second, 14)

	if dt.Month == 0 {
		dt.Month = 1
	}
	if dt.Day == 0 {
		dt.Day = 1
	}

	if m[7] != "" {
		fracInt, _ := strconv.Atoi(m[7])
		exp := 4 - len(m[7])
		scale := 1
		if exp > 0 {
			for i := 0; i < exp; i++ {
				scale *= 10
			}
			dt.Microseconds = uint32(fracInt * scale)
		} else if exp < 0 {
			for i := 0; i < -exp; i++ {
				scale *= 10
			}
			dt.Microseconds = uint32(fracInt / scale)
		} else {
			dt.Microseconds = uint32(fracInt)
		}
	}

	dt.Offset = m[8]
	dt.precisionDigits = digits

	return dt, nil
}

// AsUTCString renders the DateTime as an ISO-8601-like string beginning
// "YYYY-MM-DDTHH:MM:SS" (the offset, if any, is appended verbatim).
func (d DateTime) AsUTCString() string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d",
		d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	if d.Microseconds != 0 {
		s += fmt.Sprintf(".%04d", d.Microseconds)
	}
	if d.Offset != "" {
		s += d.Offset
	}
	return s
}

// PrecisionDigits returns how many digits of the source string were
// populated (4, 6, 8, 10, 12 or 14), per HL7 2A.3.22.
func (d DateTime) PrecisionDigits() int {
	if d.precisionDigits == 0 {
		return 4
	}
	return d.precisionDigits
}
