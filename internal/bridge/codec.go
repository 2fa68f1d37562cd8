package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/pdabridge/internal/faction"
)

// SupportedScriptVersion is the game-side script version this bridge speaks.
const SupportedScriptVersion = 9

const sep = "/"

// NoReason is the game script's marker for a ConnLost record without a
// reason, matched case-insensitively. The marker is fixed by the game side,
// so a reason spelled "None" cannot be told apart from no reason and both
// decode to "".
const NoReason = "None"

var (
	// ErrUnknownRecord is returned for a line whose tag is not in the
	// vocabulary of its direction.
	ErrUnknownRecord = errors.New("unknown record type")
	// ErrArity is returned when a known record has too few fields.
	ErrArity = errors.New("wrong number of fields")
	// ErrField is returned when a field cannot be parsed.
	ErrField = errors.New("malformed field")
	// ErrEmptyUsers is returned when encoding a Users snapshot with no entries.
	ErrEmptyUsers = errors.New("empty users snapshot")
)

// decoder builds a record from exactly arity fields. The last field keeps
// any embedded separators. An arity of 0 means variable.
type decoder struct {
	arity int
	build func(f []string) (Record, error)
}

var inbound = map[string]decoder{
	"Handshake": {1, func(f []string) (Record, error) {
		v, err := atoi(f[0])
		return Handshake{Version: v}, err
	}},
	"Death": {4, func(f []string) (Record, error) {
		return Death{Causer: f[0], Location: f[1], Cause: f[2], Meta: f[3]}, nil
	}},
	"Money": {1, func(f []string) (Record, error) {
		v, err := atoi(f[0])
		return MoneyChange{Amount: v}, err
	}},
	"ConnLost": {2, func(f []string) (Record, error) {
		lost, err := parseBool(f[0])
		reason := f[1]
		if strings.EqualFold(reason, NoReason) {
			reason = ""
		}
		return ConnectionLost{Lost: lost, Reason: reason}, err
	}},
	"ActorStatus": {1, func(f []string) (Record, error) {
		return ActorStatus{Value: f[0]}, nil
	}},
	"ChannelChange": {1, func(f []string) (Record, error) {
		return ChannelChange{Description: f[0]}, nil
	}},
	"Message": {2, func(f []string) (Record, error) {
		return GameMessage{Faction: faction.Faction(f[0]), Content: f[1]}, nil
	}},
	"Query": {4, func(f []string) (Record, error) {
		return GameQuery{Faction: faction.Faction(f[0]), Author: f[1], Receiver: f[2], Content: f[3]}, nil
	}},
}

var outbound = map[string]decoder{
	"Message": {4, func(f []string) (Record, error) {
		hl, err := parseBool(f[2])
		return ChannelMessage{Faction: faction.Faction(f[0]), Author: f[1], Highlight: hl, Content: f[3]}, err
	}},
	"Query": {4, func(f []string) (Record, error) {
		return QueryMessage{Faction: faction.Faction(f[0]), Author: f[1], Receiver: f[2], Content: f[3]}, nil
	}},
	"Users": {0, decodeUsers},
	"Setting": {0, func(f []string) (Record, error) {
		name, value, _ := strings.Cut(f[0], sep)
		return Setting{Name: name, Value: value}, nil
	}},
	"Information": {1, func(f []string) (Record, error) {
		return Information{Content: f[0]}, nil
	}},
	"Error": {1, func(f []string) (Record, error) {
		return ErrorLine{Content: f[0]}, nil
	}},
	"MoneyRecv": {2, func(f []string) (Record, error) {
		v, err := atoi(f[1])
		return MoneyReceived{Author: f[0], Amount: v}, err
	}},
	"Money": {3, func(f []string) (Record, error) {
		v, err := atoi(f[2])
		return MoneySent{Author: f[0], Receiver: f[1], Amount: v}, err
	}},
}

// DecodeInbound parses a line written by the game.
//
// Postcondition: Returns ErrUnknownRecord for an unknown tag, ErrArity or
// ErrField for a malformed known record.
func DecodeInbound(line string) (Record, error) {
	return decode(inbound, line)
}

// DecodeOutbound parses a line written by the bridge.
func DecodeOutbound(line string) (Record, error) {
	return decode(outbound, line)
}

func decode(table map[string]decoder, line string) (Record, error) {
	tag, rest, _ := strings.Cut(strings.TrimRight(line, "\r\n"), sep)
	d, ok := table[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecord, tag)
	}
	fields := []string{rest}
	if d.arity > 0 {
		fields = strings.SplitN(rest, sep, d.arity)
		if len(fields) != d.arity {
			return nil, fmt.Errorf("%w: %s wants %d, got %d in %q", ErrArity, tag, d.arity, len(fields), line)
		}
	}
	rec, err := d.build(fields)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", tag, err)
	}
	return rec, nil
}

// Encode renders a record as one bridge line without the trailing newline.
func Encode(r Record) (string, error) {
	var fields []string
	switch r := r.(type) {
	case Handshake:
		fields = []string{strconv.Itoa(r.Version)}
	case Death:
		fields = []string{r.Causer, r.Location, r.Cause, r.Meta}
	case MoneyChange:
		fields = []string{strconv.Itoa(r.Amount)}
	case ConnectionLost:
		reason := r.Reason
		if reason == "" {
			reason = NoReason
		}
		fields = []string{FormatBool(r.Lost), reason}
	case ActorStatus:
		fields = []string{r.Value}
	case ChannelChange:
		fields = []string{r.Description}
	case GameMessage:
		fields = []string{string(r.Faction), r.Content}
	case GameQuery:
		fields = []string{string(r.Faction), r.Author, r.Receiver, r.Content}
	case ChannelMessage:
		fields = []string{string(r.Faction), r.Author, FormatBool(r.Highlight), r.Content}
	case QueryMessage:
		fields = []string{string(r.Faction), r.Author, r.Receiver, r.Content}
	case Users:
		if len(r.Entries) == 0 {
			return "", ErrEmptyUsers
		}
		for _, e := range r.Entries {
			fields = append(fields, encodeUser(e))
		}
	case Setting:
		fields = []string{r.Name}
		if r.Value != "" {
			fields = append(fields, r.Value)
		}
	case Information:
		fields = []string{r.Content}
	case ErrorLine:
		fields = []string{r.Content}
	case MoneyReceived:
		fields = []string{r.Author, strconv.Itoa(r.Amount)}
	case MoneySent:
		fields = []string{r.Author, r.Receiver, strconv.Itoa(r.Amount)}
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownRecord, r)
	}
	return r.Tag() + sep + strings.Join(fields, sep), nil
}

func encodeUser(e UserEntry) string {
	f := e.Faction
	if f == "" {
		f = faction.Anonymous
	}
	return fmt.Sprintf("%s,%s = %s", strings.TrimLeft(e.Name, "@%+"), f, FormatBool(e.Online))
}

func decodeUsers(f []string) (Record, error) {
	var entries []UserEntry
	for _, item := range strings.Split(f[0], sep) {
		left, online, ok := strings.Cut(item, " = ")
		if !ok {
			return nil, fmt.Errorf("%w: user entry %q", ErrField, item)
		}
		name, fac, ok := strings.Cut(left, ",")
		if !ok {
			return nil, fmt.Errorf("%w: user entry %q", ErrField, item)
		}
		b, err := parseBool(online)
		if err != nil {
			return nil, err
		}
		entries = append(entries, UserEntry{Name: name, Faction: faction.Faction(fac), Online: b})
	}
	return Users{Entries: entries}, nil
}

// FormatBool renders b the way the game script expects.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: boolean %q", ErrField, s)
	}
}

func atoi(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: integer %q", ErrField, s)
	}
	return v, nil
}
