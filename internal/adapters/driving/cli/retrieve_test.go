package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveCmd_Use(t *testing.T) {
	assert.Equal(t, "retrieve [query]", retrieveCmd.Use)
}

func TestRetrieveCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"retrieve"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRetrieveCmd_HasLimitFlag(t *testing.T) {
	flag := retrieveCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestRetrieveCmd_FailsWithoutServices(t *testing.T) {
	SetServices(Services{})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"retrieve", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestRetrieveCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Results:")
	assert.Contains(t, buf.String(), "Understanding React Hooks")
	assert.Contains(t, buf.String(), "Dev Channel")
}

func TestRetrieveCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "--json", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
		retrieveJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"ChunkID\"")
	assert.Contains(t, buf.String(), "\"FinalScore\"")
}

func TestRetrieveCmd_Rerank(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "--rerank", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
		retrieveRerank = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "rerank")
	assert.Contains(t, buf.String(), "Understanding React Hooks")
}

func TestRetrieveCmd_ContextOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "--context", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
		retrieveContext = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[1] Understanding React Hooks")
	assert.Contains(t, buf.String(), "Citations: 2")
}

func TestRetrieveCmd_RejectsUnknownContentType(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"retrieve", "--types", "podcast", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
		retrieveTypes = nil
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")
}

func TestRetrieveCmd_NoResults(t *testing.T) {
	SetServices(Services{
		Queries:   &stubProcessor{},
		Retriever: &stubRetriever{},
	})
	defer SetServices(Services{})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"retrieve", "react hooks"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found.")
}
