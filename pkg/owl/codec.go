package owl

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/backkem/owl/pkg/crypto"
	"github.com/backkem/owl/pkg/crypto/schnorr"
)

// encMode is the deterministic CBOR encoder shared by all codecs, so the
// same value always serializes to the same bytes.
var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// Wire representations. Points travel in their canonical uncompressed
// encoding and scalars in fixed-width big-endian form inside CBOR byte
// strings, so the envelope preserves the exact bytes the transcript hash
// is computed over.
type zkpWire struct {
	H []byte `cbor:"1,keyasint"`
	R []byte `cbor:"2,keyasint"`
}

type registrationRequestWire struct {
	Pi []byte `cbor:"1,keyasint"`
	T  []byte `cbor:"2,keyasint"`
}

type credentialsWire struct {
	X3  []byte  `cbor:"1,keyasint"`
	PI3 zkpWire `cbor:"2,keyasint"`
	Pi  []byte  `cbor:"3,keyasint"`
	T   []byte  `cbor:"4,keyasint"`
}

type authInitRequestWire struct {
	X1  []byte  `cbor:"1,keyasint"`
	X2  []byte  `cbor:"2,keyasint"`
	PI1 zkpWire `cbor:"3,keyasint"`
	PI2 zkpWire `cbor:"4,keyasint"`
}

type authInitResponseWire struct {
	X3     []byte  `cbor:"1,keyasint"`
	X4     []byte  `cbor:"2,keyasint"`
	PI3    zkpWire `cbor:"3,keyasint"`
	PI4    zkpWire `cbor:"4,keyasint"`
	Beta   []byte  `cbor:"5,keyasint"`
	PIBeta zkpWire `cbor:"6,keyasint"`
}

type authFinishRequestWire struct {
	Alpha   []byte  `cbor:"1,keyasint"`
	PIAlpha zkpWire `cbor:"2,keyasint"`
	R       []byte  `cbor:"3,keyasint"`
}

// Codec serializes protocol messages and credential records as CBOR for a
// fixed curve. Decoding re-validates every point and scalar, so a value
// that decodes is structurally safe to hand to the state machines.
type Codec struct {
	curve crypto.Curve
}

// NewCodec creates a codec for the given curve.
func NewCodec(curve crypto.Curve) (*Codec, error) {
	if !curve.Valid() {
		return nil, ErrInvalidConfig
	}
	return &Codec{curve: curve}, nil
}

func (c *Codec) encodeProof(p *schnorr.Proof) zkpWire {
	return zkpWire{
		H: c.curve.EncodeScalar(p.H),
		R: c.curve.EncodeScalar(p.R),
	}
}

func (c *Codec) decodeProof(w zkpWire) (*schnorr.Proof, error) {
	h, err := c.curve.DecodeScalar(w.H)
	if err != nil {
		return nil, err
	}
	r, err := c.curve.DecodeScalar(w.R)
	if err != nil {
		return nil, err
	}
	return &schnorr.Proof{H: h, R: r}, nil
}

// EncodeRegistrationRequest serializes a registration request.
func (c *Codec) EncodeRegistrationRequest(req *RegistrationRequest) ([]byte, error) {
	t, err := c.curve.EncodePoint(req.T)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return encMode.Marshal(&registrationRequestWire{
		Pi: c.curve.EncodeScalar(req.Pi),
		T:  t,
	})
}

// DecodeRegistrationRequest parses and validates a registration request.
func (c *Codec) DecodeRegistrationRequest(data []byte) (*RegistrationRequest, error) {
	var w registrationRequestWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, ErrMalformedRequest
	}
	pi, err := c.curve.DecodeScalar(w.Pi)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	t, err := c.curve.DecodePoint(w.T)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return &RegistrationRequest{Pi: pi, T: t}, nil
}

// EncodeCredentials serializes a credential record for persistence. The
// encoding is deterministic: the same record always produces the same bytes.
func (c *Codec) EncodeCredentials(cred *UserCredentials) ([]byte, error) {
	x3, err := c.curve.EncodePoint(cred.X3)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	t, err := c.curve.EncodePoint(cred.T)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return encMode.Marshal(&credentialsWire{
		X3:  x3,
		PI3: c.encodeProof(cred.PI3),
		Pi:  c.curve.EncodeScalar(cred.Pi),
		T:   t,
	})
}

// DecodeCredentials parses and validates a persisted credential record.
func (c *Codec) DecodeCredentials(data []byte) (*UserCredentials, error) {
	var w credentialsWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, ErrMalformedRequest
	}
	x3, err := c.curve.DecodePoint(w.X3)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	pi3, err := c.decodeProof(w.PI3)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	pi, err := c.curve.DecodeScalar(w.Pi)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	t, err := c.curve.DecodePoint(w.T)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return &UserCredentials{X3: x3, PI3: pi3, Pi: pi, T: t}, nil
}

// EncodeAuthInitRequest serializes a login flow-1 message.
func (c *Codec) EncodeAuthInitRequest(req *AuthInitRequest) ([]byte, error) {
	x1, err := c.curve.EncodePoint(req.X1)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	x2, err := c.curve.EncodePoint(req.X2)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return encMode.Marshal(&authInitRequestWire{
		X1:  x1,
		X2:  x2,
		PI1: c.encodeProof(req.PI1),
		PI2: c.encodeProof(req.PI2),
	})
}

// DecodeAuthInitRequest parses and validates a login flow-1 message.
func (c *Codec) DecodeAuthInitRequest(data []byte) (*AuthInitRequest, error) {
	var w authInitRequestWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, ErrMalformedRequest
	}
	x1, err := c.curve.DecodePoint(w.X1)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	x2, err := c.curve.DecodePoint(w.X2)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	pi1, err := c.decodeProof(w.PI1)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	pi2, err := c.decodeProof(w.PI2)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return &AuthInitRequest{X1: x1, X2: x2, PI1: pi1, PI2: pi2}, nil
}

// EncodeAuthInitResponse serializes a login flow-2 message.
func (c *Codec) EncodeAuthInitResponse(resp *AuthInitResponse) ([]byte, error) {
	x3, err := c.curve.EncodePoint(resp.X3)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	x4, err := c.curve.EncodePoint(resp.X4)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	beta, err := c.curve.EncodePoint(resp.Beta)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	return encMode.Marshal(&authInitResponseWire{
		X3:     x3,
		X4:     x4,
		PI3:    c.encodeProof(resp.PI3),
		PI4:    c.encodeProof(resp.PI4),
		Beta:   beta,
		PIBeta: c.encodeProof(resp.PIBeta),
	})
}

// DecodeAuthInitResponse parses and validates a login flow-2 message.
func (c *Codec) DecodeAuthInitResponse(data []byte) (*AuthInitResponse, error) {
	var w authInitResponseWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, ErrMalformedResponse
	}
	x3, err := c.curve.DecodePoint(w.X3)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	x4, err := c.curve.DecodePoint(w.X4)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	pi3, err := c.decodeProof(w.PI3)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	pi4, err := c.decodeProof(w.PI4)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	beta, err := c.curve.DecodePoint(w.Beta)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	piBeta, err := c.decodeProof(w.PIBeta)
	if err != nil {
		return nil, ErrMalformedResponse
	}
	return &AuthInitResponse{X3: x3, X4: x4, PI3: pi3, PI4: pi4, Beta: beta, PIBeta: piBeta}, nil
}

// EncodeAuthFinishRequest serializes a login flow-3 message.
func (c *Codec) EncodeAuthFinishRequest(req *AuthFinishRequest) ([]byte, error) {
	alpha, err := c.curve.EncodePoint(req.Alpha)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return encMode.Marshal(&authFinishRequestWire{
		Alpha:   alpha,
		PIAlpha: c.encodeProof(req.PIAlpha),
		R:       c.curve.EncodeScalar(req.R),
	})
}

// DecodeAuthFinishRequest parses and validates a login flow-3 message.
func (c *Codec) DecodeAuthFinishRequest(data []byte) (*AuthFinishRequest, error) {
	var w authFinishRequestWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, ErrMalformedRequest
	}
	alpha, err := c.curve.DecodePoint(w.Alpha)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	piAlpha, err := c.decodeProof(w.PIAlpha)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	r, err := c.curve.DecodeScalar(w.R)
	if err != nil {
		return nil, ErrMalformedRequest
	}
	return &AuthFinishRequest{Alpha: alpha, PIAlpha: piAlpha, R: r}, nil
}
