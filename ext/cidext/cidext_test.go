package cidext

import (
	"reflect"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"

	"xdao.co/hashit/canon"
	"xdao.co/hashit/cidutil"
)

func isolated(t *testing.T) canon.Options {
	t.Helper()
	reg := canon.NewRegistry()
	require.NoError(t, Register(reg))
	return canon.Options{Registry: reg}
}

func TestCID_RendersByString(t *testing.T) {
	opts := isolated(t)
	c, err := cidutil.CIDv1RawSHA256CID([]byte("hello"))
	require.NoError(t, err)

	got, err := canon.Canonicalize(map[string]cid.Cid{"doc": c}, opts)
	require.NoError(t, err)
	require.Equal(t, "map^[[[doc,cid^"+c.String()+"]]]", got)

	got, err = canon.Canonicalize(&c, opts)
	require.NoError(t, err)
	require.Equal(t, "cid^"+c.String(), got)
}

func TestCID_VersionsAgree(t *testing.T) {
	opts := isolated(t)
	mh, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	require.NoError(t, err)

	v0 := cid.NewCidV0(mh)
	v1 := cid.NewCidV1(cid.DagProtobuf, mh)
	a, err := canon.Canonicalize(v0, opts)
	require.NoError(t, err)
	b, err := canon.Canonicalize(v1, opts)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestCID_Undef(t *testing.T) {
	got, err := canon.Canonicalize(cid.Undef, isolated(t))
	require.NoError(t, err)
	require.Equal(t, "null", got)
}

func TestMultihash(t *testing.T) {
	opts := isolated(t)
	mh, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	require.NoError(t, err)

	got, err := canon.Canonicalize(mh, opts)
	require.NoError(t, err)
	require.Equal(t, "mh^"+mh.B58String(), got)

	_, err = canon.Canonicalize(multihash.Multihash{0xff}, opts)
	require.True(t, canon.IsKind(err, canon.KindExtension))
}

func TestDefaultRegistration(t *testing.T) {
	_, ok := canon.Default.Lookup(reflect.TypeFor[cid.Cid]())
	require.True(t, ok)
}
