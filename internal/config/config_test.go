package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/devtube")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("S3_BUCKET", "devtube")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.RevokeOnPasswordChange)
	assert.Equal(t, "channels", cfg.ES.Index)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "1h")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "7d")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("REVOKE_ON_PASSWORD_CHANGE", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.RevokeOnPasswordChange)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestFromEnv_MissingSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	t.Setenv("S3_BUCKET", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestFromEnv_SameSecretsRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REFRESH_TOKEN_SECRET", "access-secret")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "1d", want: 24 * time.Hour},
		{in: " 10d ", want: 240 * time.Hour},
		{in: "xd", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTTL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFromEnv_BcryptCostRange(t *testing.T) {
	tests := []struct {
		cost    string
		wantErr bool
	}{
		{cost: "4"},
		{cost: "31"},
		{cost: "3", wantErr: true},
		{cost: "32", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.cost, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("BCRYPT_COST", tt.cost)

			_, err := FromEnv()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "BCRYPT_COST")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFromEnv_MalformedValuesReported(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BCRYPT_COST", "twelve")
	t.Setenv("COOKIE_SECURE", "sometimes")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `BCRYPT_COST: invalid integer "twelve"`)
	assert.Contains(t, err.Error(), `COOKIE_SECURE: invalid boolean "sometimes"`)
}
