package app

import (
	"bytes"
	"testing"
)

// TestRun_WithMissingEnv_ReturnsError は必須環境変数欠落時にエラーを返すことを検証する。
func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

// TestRun_HealthcheckCommand_FailsWithoutServer はサーバー未起動時に
// healthcheckコマンドがエラーを返すことを検証する。
func TestRun_HealthcheckCommand_FailsWithoutServer(t *testing.T) {
	t.Setenv("SERVER_PORT", "1") // どこもリッスンしていないポート

	var buf bytes.Buffer
	err := Run(&buf, []string{"healthcheck"})
	if err == nil {
		t.Fatal("healthcheck without a running server should return error")
	}
}
