package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

var (
	ErrInvalidHashFormat   = errors.New("invalid encoded hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrUnknownScheme       = errors.New("unknown password hash scheme")
	ErrPasswordTooLong     = errors.New("password is too long")
)

// Argon2Params configures the Argon2id hashing parameters.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns recommended Argon2id parameters for password hashing.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// PasswordHasher produces salted one-way password hashes. Every call draws a
// fresh salt, so hashing the same password twice gives different strings.
type PasswordHasher struct {
	scheme     string
	bcryptCost int
	argon2     Argon2Params
}

// NewPasswordHasher returns a hasher for scheme. A bcryptCost of zero selects
// bcrypt.DefaultCost.
func NewPasswordHasher(scheme string, bcryptCost int) (*PasswordHasher, error) {
	switch scheme {
	case SchemeBcrypt:
		if bcryptCost == 0 {
			bcryptCost = bcrypt.DefaultCost
		}
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case SchemeArgon2id:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}

	return &PasswordHasher{
		scheme:     scheme,
		bcryptCost: bcryptCost,
		argon2:     DefaultArgon2Params(),
	}, nil
}

// Hash hashes password with the configured scheme.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.scheme == SchemeArgon2id {
		a, err := newArgon2Hash(password, h.argon2)
		if err != nil {
			return "", err
		}
		return a.String(), nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash. The scheme is taken
// from the hash itself, so accounts hashed under a previous scheme still
// verify. A mismatch returns false with a nil error.
func (h *PasswordHasher) Verify(password, encodedHash string) (bool, error) {
	return VerifyPassword(password, encodedHash)
}

// VerifyPassword checks password against a bcrypt or PHC-encoded Argon2id hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		a, err := parseArgon2Hash(encodedHash)
		if err != nil {
			return false, err
		}
		return a.matches(password), nil
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
	return false, ErrInvalidHashFormat
}

// argon2Hash is an Argon2id key together with the salt and parameters that
// produced it. Its text form is the PHC string
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func newArgon2Hash(password string, params Argon2Params) (argon2Hash, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return argon2Hash{}, fmt.Errorf("generating salt: %w", err)
	}
	h := argon2Hash{params: params, salt: salt}
	h.key = h.derive(password)
	return h, nil
}

func (h argon2Hash) derive(password string) []byte {
	p := h.params
	return argon2.IDKey([]byte(password), h.salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
}

func (h argon2Hash) matches(password string) bool {
	return subtle.ConstantTimeCompare(h.key, h.derive(password)) == 1
}

func (h argon2Hash) String() string {
	b64 := base64.RawStdEncoding
	return "$" + SchemeArgon2id +
		"$v=" + strconv.Itoa(argon2.Version) +
		"$m=" + strconv.FormatUint(uint64(h.params.Memory), 10) +
		",t=" + strconv.FormatUint(uint64(h.params.Iterations), 10) +
		",p=" + strconv.FormatUint(uint64(h.params.Parallelism), 10) +
		"$" + b64.EncodeToString(h.salt) +
		"$" + b64.EncodeToString(h.key)
}

func parseArgon2Hash(encoded string) (argon2Hash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != SchemeArgon2id {
		return argon2Hash{}, ErrInvalidHashFormat
	}

	version, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return argon2Hash{}, ErrInvalidHashFormat
	}
	if v, err := strconv.Atoi(version); err != nil {
		return argon2Hash{}, ErrInvalidHashFormat
	} else if v != argon2.Version {
		return argon2Hash{}, ErrIncompatibleVersion
	}

	var h argon2Hash
	seen := 0
	for _, kv := range strings.Split(fields[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return argon2Hash{}, ErrInvalidHashFormat
		}
		var err error
		switch name {
		case "m":
			h.params.Memory, err = parseUint32(value)
		case "t":
			h.params.Iterations, err = parseUint32(value)
		case "p":
			var p uint64
			p, err = strconv.ParseUint(value, 10, 8)
			h.params.Parallelism = uint8(p)
		default:
			err = ErrInvalidHashFormat
		}
		if err != nil {
			return argon2Hash{}, ErrInvalidHashFormat
		}
		seen++
	}
	if seen != 3 || h.params.Iterations == 0 || h.params.Parallelism == 0 {
		return argon2Hash{}, ErrInvalidHashFormat
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return argon2Hash{}, ErrInvalidHashFormat
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return argon2Hash{}, ErrInvalidHashFormat
	}
	h.params.SaltLength = uint32(len(h.salt))
	h.params.KeyLength = uint32(len(h.key))

	return h, nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	return uint32(n), err
}
