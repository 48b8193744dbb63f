package youdao

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const WebSocketBaseURL = "wss://openapi.youdao.com/stream_speech_trans"

// Fixed parameters of the stream_speech_trans endpoint. The service
// only accepts 16 kHz mono wav over protocol v1, signed with the v4
// scheme.
const (
	audioFormat = "wav"
	sampleRate  = "16000"
	channels    = "1"
	apiVersion  = "v1"
	signType    = "v4"
)

// Credentials is the app key/secret pair issued by the Youdao console.
type Credentials struct {
	AppKey    string
	AppSecret string
}

// Sign computes the v4 request signature: the hex SHA-256 digest of
// appKey ++ salt ++ curtime ++ appSecret, concatenated in that order.
func Sign(appKey, salt, curtime, appSecret string) string {
	sum := sha256.Sum256([]byte(appKey + salt + curtime + appSecret))
	return hex.EncodeToString(sum[:])
}

// BuildWebSocketURL assembles the signed connection URL for one
// session. Salt and timestamp are fresh on every call, so the result
// must not be cached or reused across sessions.
func BuildWebSocketURL(creds Credentials, from, to string) string {
	u := uuid.New()
	salt := hex.EncodeToString(u[:])
	curtime := strconv.FormatInt(time.Now().Unix(), 10)
	return buildWebSocketURL(creds, from, to, salt, curtime)
}

func buildWebSocketURL(creds Credentials, from, to, salt, curtime string) string {
	params := url.Values{}
	params.Set("appKey", creds.AppKey)
	params.Set("salt", salt)
	params.Set("curtime", curtime)
	params.Set("signType", signType)
	params.Set("sign", Sign(creds.AppKey, salt, curtime, creds.AppSecret))
	params.Set("from", from)
	params.Set("to", to)
	params.Set("format", audioFormat)
	params.Set("rate", sampleRate)
	params.Set("channel", channels)
	params.Set("version", apiVersion)
	return fmt.Sprintf("%s?%s", WebSocketBaseURL, params.Encode())
}
