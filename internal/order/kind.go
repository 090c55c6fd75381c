package order

import "fmt"

// Kind is the category of a diagnostic test.
type Kind int

const (
	KindUnknown Kind = iota
	BloodTest
	XRay
	MRI
	CTScan
)

var kindNames = map[Kind]string{
	KindUnknown: "Unknown",
	BloodTest:   "BloodTest",
	XRay:        "XRay",
	MRI:         "MRI",
	CTScan:      "CTScan",
}

// Kinds returns every known test kind, KindUnknown excluded.
func Kinds() []Kind {
	return []Kind{BloodTest, XRay, MRI, CTScan}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsValid reports whether k is one of Kinds.
func (k Kind) IsValid() bool {
	return k >= BloodTest && k <= CTScan
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if k != KindUnknown && name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown test kind: %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
