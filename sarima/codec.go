package sarima

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

var ErrUnknownCodec = errors.New("unknown model codec")

// Codec serializes a model to a persisted format
type Codec interface {
	Name() string
	Extension() string
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string      { return CodecJSON }
func (jsonCodec) Extension() string { return ".json" }

func (jsonCodec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (jsonCodec) Decode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string      { return CodecMsgpack }
func (msgpackCodec) Extension() string { return ".msgpack" }

func (msgpackCodec) Encode(w io.Writer, v any) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(v)
}

func (msgpackCodec) Decode(r io.Reader, v any) error {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

var (
	JSONCodec    Codec = jsonCodec{}
	MsgpackCodec Codec = msgpackCodec{}
)

// CodecByName returns the codec registered under name
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec, nil
	case CodecMsgpack:
		return MsgpackCodec, nil
	default:
		return nil, fmt.Errorf("%s, %w", name, ErrUnknownCodec)
	}
}

// CodecForPath picks the codec from a file extension defaulting to json
func CodecForPath(path string) Codec {
	if filepath.Ext(path) == MsgpackCodec.Extension() {
		return MsgpackCodec
	}
	return JSONCodec
}

// Save writes the fit model to path
func (m *Model) Save(path string, codec Codec) error {
	if !m.Trained() {
		return ErrUntrainedModel
	}
	if codec == nil {
		codec = JSONCodec
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := codec.Encode(file, m); err != nil {
		file.Close()
		return fmt.Errorf("unable to encode model, %w", err)
	}
	return file.Close()
}

// Load reads a model written by Save
func Load(path string, codec Codec) (*Model, error) {
	if codec == nil {
		codec = CodecForPath(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var m Model
	if err := codec.Decode(file, &m); err != nil {
		return nil, fmt.Errorf("unable to decode model, %w", err)
	}
	if err := m.Order.Validate(); err != nil {
		return nil, err
	}
	if !m.Trained() {
		return nil, ErrUntrainedModel
	}
	if len(m.Residuals) != len(m.History)-m.Order.DiffLoss() {
		return nil, fmt.Errorf("residual length %d does not match history, %w", len(m.Residuals), ErrInsufficientData)
	}
	return &m, nil
}
