package domain

import (
	"fmt"
	"strconv"
)

// noleapDays holds days per month in the 365-day "noleap" calendar.
var noleapDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// noleapCum[m] is the number of days preceding month m+1.
var noleapCum = func() [12]int {
	var cum [12]int
	total := 0
	for i, d := range noleapDays {
		cum[i] = total
		total += d
	}
	return cum
}()

// DaysPerYear is the length of a noleap-calendar year.
const DaysPerYear = 365

// Coordinate holds the ordered labels along one dimension.
type Coordinate struct {
	Name   string
	Labels []string
}

// Len returns the number of labels.
func (c Coordinate) Len() int { return len(c.Labels) }

// Index returns the position of label, or -1 if absent.
func (c Coordinate) Index(label string) int {
	for i, l := range c.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Slice returns a copy restricted to the half-open index range [start, stop).
func (c Coordinate) Slice(start, stop int) Coordinate {
	labels := make([]string, stop-start)
	copy(labels, c.Labels[start:stop])
	return Coordinate{Name: c.Name, Labels: labels}
}

// Float parses the label at position i as a float64. Used for numeric axes
// such as lat and lon.
func (c Coordinate) Float(i int) (float64, error) {
	v, err := strconv.ParseFloat(c.Labels[i], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q label %q is not numeric: %w", c.Name, c.Labels[i], err)
	}
	return v, nil
}

// FloatCoordinate builds a numeric coordinate with canonical float labels.
func FloatCoordinate(name string, values []float64) Coordinate {
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return Coordinate{Name: name, Labels: labels}
}

// TimeCoordinate builds a noleap-calendar daily time axis spanning the
// inclusive year range [first, last]. Labels are ISO dates and never include
// February 29.
func TimeCoordinate(first, last int) Coordinate {
	if last < first {
		first, last = last, first
	}
	labels := make([]string, 0, (last-first+1)*DaysPerYear)
	for y := first; y <= last; y++ {
		for m := 1; m <= 12; m++ {
			for d := 1; d <= noleapDays[m-1]; d++ {
				labels = append(labels, fmt.Sprintf("%04d-%02d-%02d", y, m, d))
			}
		}
	}
	return Coordinate{Name: "time", Labels: labels}
}

// ParseDate splits an ISO date label into year, month, day. time.Parse is not
// used because noleap labels are valid for dates the proleptic Gregorian
// calendar rejects and vice versa.
func ParseDate(label string) (year, month, day int, err error) {
	if len(label) != 10 || label[4] != '-' || label[7] != '-' {
		return 0, 0, 0, fmt.Errorf("time label %q is not an ISO date", label)
	}
	year, err1 := strconv.Atoi(label[:4])
	month, err2 := strconv.Atoi(label[5:7])
	day, err3 := strconv.Atoi(label[8:10])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 ||
		day < 1 || day > noleapDays[month-1] {
		return 0, 0, 0, fmt.Errorf("time label %q is not a valid noleap date", label)
	}
	return year, month, day, nil
}

// DayOfYear returns the noleap day-of-year in [1, 365] for an ISO date label.
func DayOfYear(label string) (int, error) {
	_, m, d, err := ParseDate(label)
	if err != nil {
		return 0, err
	}
	return noleapCum[m-1] + d, nil
}

// Year returns the year of an ISO date label.
func Year(label string) (int, error) {
	y, _, _, err := ParseDate(label)
	return y, err
}
