package link

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mastercactapus/plasmapost/coord"
	"github.com/mastercactapus/plasmapost/machine"
)

func parseCoords(data string) (p coord.Point, err error) {
	parts := strings.Split(data, ",")
	if len(parts) != 3 {
		return p, errors.Errorf("expected 3 coordinates, got %d", len(parts))
	}
	p.X, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return p, err
	}
	p.Y, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return p, err
	}
	p.Z, err = strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return p, err
	}
	return p, nil
}

// parseProbe parses a probe report: [PRB:x,y,z:1]
func parseProbe(data string) (*machine.ProbeResult, error) {
	data = strings.TrimSpace(data)
	data = strings.TrimPrefix(data, "[")
	data = strings.TrimSuffix(data, "]")
	parts := strings.Split(data, ":")
	if parts[0] != "PRB" {
		return nil, errors.New("unknown push message: " + data)
	}
	if len(parts) != 3 {
		return nil, errors.New("invalid probe report: " + data)
	}

	var res machine.ProbeResult
	var err error
	res.Valid = parts[2] == "1"
	res.Point, err = parseCoords(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "probe report")
	}
	return &res, nil
}

// parseStatus updates stat from a status report. Fields that are not
// reported keep their previous value.
func parseStatus(stat machine.State, data string) (*machine.State, error) {
	data = strings.TrimSpace(data)
	data = strings.TrimPrefix(data, "<")
	data = strings.TrimSuffix(data, ">")
	parts := strings.Split(data, "|")
	stat.Status = parts[0]
	var err error
	for _, s := range parts[1:] {
		sParts := strings.SplitN(s, ":", 2)
		if len(sParts) != 2 {
			continue
		}
		switch sParts[0] {
		case "MPos":
			stat.MPos, err = parseCoords(sParts[1])
		case "WCO":
			stat.WCO, err = parseCoords(sParts[1])
		}
		if err != nil {
			return nil, errors.Wrap(err, sParts[0])
		}
	}
	return &stat, nil
}

// parsePosition parses a position report:
// X:10.00 Y:0.00 Z:5.00 E:0.00 Count X:800 Y:0 Z:2000
func parsePosition(data string) (p coord.Point, err error) {
	var seen int
	for _, f := range strings.Fields(data) {
		if f == "Count" {
			break
		}
		kv := strings.SplitN(f, ":", 2)
		if len(kv) != 2 {
			continue
		}
		var dst *float64
		switch kv[0] {
		case "X":
			dst = &p.X
		case "Y":
			dst = &p.Y
		case "Z":
			dst = &p.Z
		default:
			continue
		}
		*dst, err = strconv.ParseFloat(kv[1], 64)
		if err != nil {
			return p, errors.Wrap(err, "position "+kv[0])
		}
		seen++
	}
	if seen != 3 {
		return p, errors.New("incomplete position report: " + data)
	}
	return p, nil
}
