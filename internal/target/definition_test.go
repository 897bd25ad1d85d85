package target

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependencyBehavior(t *testing.T) {
	testCases := []struct {
		in      string
		want    DependencyBehavior
		wantErr bool
	}{
		{in: "", want: Execute},
		{in: "execute", want: Execute},
		{in: " Skip ", want: Skip},
		{in: "ignore", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDependencyBehavior(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "must be 'execute' or 'skip'")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.String(), got.String())
		})
	}
}

func TestCondition_Holds(t *testing.T) {
	ok, err := Condition{}.Holds()
	require.NoError(t, err)
	assert.True(t, ok, "a condition without a check always holds")

	boom := errors.New("boom")
	ok, err = Condition{Check: func() (bool, error) { return false, boom }}.Holds()
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestDefinition_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		def    Definition
		errMsg string
	}{
		{name: "valid", def: Definition{Name: "Compile", DependsOn: []string{"Restore"}, PartitionCount: 2}},
		{name: "empty name", def: Definition{Name: "  "}, errMsg: "cannot be empty"},
		{name: "negative partitions", def: Definition{Name: "Test", PartitionCount: -1}, errMsg: "partition count"},
		{name: "self dependency", def: Definition{Name: "Test", DependsOn: []string{"Test"}}, errMsg: "references itself"},
		{name: "self trigger", def: Definition{Name: "Test", TriggeredBy: []string{"Test"}}, errMsg: "references itself"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Validate()
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestDefinition_Partitioned(t *testing.T) {
	assert.False(t, (&Definition{Name: "A"}).Partitioned())
	assert.True(t, (&Definition{Name: "A", PartitionCount: 1}).Partitioned())
}

func TestInvocation_WasInvoked(t *testing.T) {
	inv := &Invocation{Invoked: []string{"Test", "Pack"}}
	assert.True(t, inv.WasInvoked("Pack"))
	assert.False(t, inv.WasInvoked("Compile"))
}
