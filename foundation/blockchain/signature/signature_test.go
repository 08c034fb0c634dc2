package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rblocklabs/rblock/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to sign data and verify the signature.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to parse the private key.", success)

		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the data.", success)

		if err := signature.VerifySignature(value, v, r, s); err != nil {
			t.Fatalf("\t%s\tShould be able to verify the signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		addr, err := signature.FromAddress(value, v, r, s)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to extract the from address: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to extract the from address.", success)

		if addr != from {
			t.Logf("got: %s", addr)
			t.Logf("exp: %s", from)
			t.Fatalf("\t%s\tShould get back the right address.", failed)
		}
		t.Logf("\t%s\tShould get back the right address.", success)
	}
}

func Test_TamperedValue(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to reject a signature over different data.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %s", failed, err)
		}

		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the data.", success)

		tampered := struct {
			Name string
		}{
			Name: "Bull",
		}

		// The recovered key differs for the tampered data, so the equation
		// check can't pair the signature with the claimed address.
		addr, err := signature.FromAddress(tampered, v, r, s)
		if err == nil && addr == from {
			t.Fatalf("\t%s\tShould not recover the original signer for tampered data.", failed)
		}
		t.Logf("\t%s\tShould not recover the original signer for tampered data.", success)
	}
}

func Test_SignatureString(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to round-trip a signature through its hex form.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %s", failed, err)
		}

		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the data.", success)

		sigStr := signature.SignatureString(v, r, s)

		v2, r2, s2, err := signature.ToVRSFromHexSignature(sigStr)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to convert the hex signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to convert the hex signature.", success)

		if v.Cmp(v2) != 0 || r.Cmp(r2) != 0 || s.Cmp(s2) != 0 {
			t.Fatalf("\t%s\tShould get back the same v, r, s values.", failed)
		}
		t.Logf("\t%s\tShould get back the same v, r, s values.", success)
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to hash values deterministically.")
	{
		h1 := signature.Hash(value)
		h2 := signature.Hash(value)

		if h1 != h2 {
			t.Fatalf("\t%s\tShould get the same hash for the same value.", failed)
		}
		t.Logf("\t%s\tShould get the same hash for the same value.", success)

		if len(h1) != 66 || h1[:2] != "0x" {
			t.Fatalf("\t%s\tShould get a 0x prefixed 32 byte hash: got %s", failed, h1)
		}
		t.Logf("\t%s\tShould get a 0x prefixed 32 byte hash.", success)

		if signature.HashText("rblock") == signature.HashText("rblocks") {
			t.Fatalf("\t%s\tShould get different hashes for different text.", failed)
		}
		t.Logf("\t%s\tShould get different hashes for different text.", success)
	}
}
