package wire

import (
	"testing"

	"kvstore/internal/address"
)

func TestKV_CreateRoundTrip(t *testing.T) {
	f := KVFrame{
		TransID: 5,
		From:    address.Address{ID: 1, Port: 9000},
		Type:    Create,
		Key:     "k1",
		Value:   "v1",
		Replica: 0,
	}
	buf := EncodeKV(f)
	got, err := DecodeKV(buf)
	if err != nil {
		t.Fatalf("DecodeKV returned error: %v", err)
	}
	if got != f {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestKV_ReadDeleteRoundTrip(t *testing.T) {
	for _, typ := range []KVType{Read, Delete, StabilizationDelete} {
		f := KVFrame{TransID: 1, From: address.Address{ID: 2, Port: 1}, Type: typ, Key: "k"}
		buf := EncodeKV(f)
		got, err := DecodeKV(buf)
		if err != nil {
			t.Fatalf("DecodeKV(%s) returned error: %v", typ, err)
		}
		if got != f {
			t.Errorf("%s round trip mismatch: got %+v, want %+v", typ, got, f)
		}
	}
}

func TestKV_ReplyRoundTrip(t *testing.T) {
	for _, success := range []bool{true, false} {
		f := KVFrame{TransID: 3, From: address.Address{ID: 1, Port: 0}, Type: Reply, Success: success}
		buf := EncodeKV(f)
		got, err := DecodeKV(buf)
		if err != nil {
			t.Fatalf("DecodeKV returned error: %v", err)
		}
		if got.Success != success {
			t.Errorf("success mismatch: got %v, want %v", got.Success, success)
		}
	}
}

func TestKV_ReadReplyRoundTrip(t *testing.T) {
	f := KVFrame{TransID: 9, From: address.Address{ID: 3, Port: 2}, Type: ReadReply, Value: "hello"}
	buf := EncodeKV(f)
	got, err := DecodeKV(buf)
	if err != nil {
		t.Fatalf("DecodeKV returned error: %v", err)
	}
	if got.Value != "hello" {
		t.Errorf("value mismatch: got %q, want %q", got.Value, "hello")
	}
}

func TestKV_UntrackedTransID(t *testing.T) {
	f := KVFrame{TransID: UntrackedTransID, From: address.Address{ID: 2, Port: 0}, Type: StabilizationCreate, Key: "k", Value: "v"}
	buf := EncodeKV(f)
	if string(buf)[0] != '-' {
		t.Fatalf("expected untracked frame to begin with '-', got %q", buf)
	}
	got, err := DecodeKV(buf)
	if err != nil {
		t.Fatalf("DecodeKV returned error: %v", err)
	}
	if got.TransID != UntrackedTransID {
		t.Errorf("expected untracked trans id, got %d", got.TransID)
	}
}

func TestKV_EmptyValueIsLegal(t *testing.T) {
	f := KVFrame{TransID: 1, From: address.Address{ID: 1, Port: 0}, Type: ReadReply, Value: ""}
	buf := EncodeKV(f)
	got, err := DecodeKV(buf)
	if err != nil {
		t.Fatalf("DecodeKV returned error: %v", err)
	}
	if got.Value != "" {
		t.Errorf("expected empty value, got %q", got.Value)
	}
}

func TestDecodeKV_Malformed(t *testing.T) {
	cases := []string{
		"",
		"not-enough-fields",
		"1|bad-addr|READ|k",
		"1|1:0|UNKNOWNTYPE|k",
		"x|1:0|READ|k",
	}
	for _, c := range cases {
		if _, err := DecodeKV([]byte(c)); err == nil {
			t.Errorf("DecodeKV(%q) expected error, got nil", c)
		}
	}
}
