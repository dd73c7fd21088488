package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

// envelope 对应服务端统一响应格式。
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	adminEmail := flag.String("admin-email", "admin@sweetshop.com", "email matching the server's ADMIN_EMAIL")
	adminPassword := flag.String("admin-password", "AdminPassword123", "admin password")
	stock := flag.Int("stock", 20, "initial stock of the sweet under test")

	// 超卖测试参数：200 个用户并发抢 20 件
	nUsers := flag.Int("users", 200, "distinct users")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	// 0) 管理员登录（首次运行时先注册），创建待测商品
	adminToken, err := ensureUser(client, *baseURL, *adminEmail, *adminPassword)
	if err != nil {
		fail("admin login", err)
	}
	sweetID, err := createSweet(client, *baseURL, adminToken, fmt.Sprintf("Loadtest %d", time.Now().UnixNano()), *stock)
	if err != nil {
		fail("create sweet", err)
	}
	fmt.Printf("sweet %d created with stock %d\n", sweetID, *stock)

	// 1) 注册并登录买家
	runID := time.Now().Unix()
	tokens := make([]string, *nUsers)
	for i := range tokens {
		email := fmt.Sprintf("load-%d-%d@example.com", runID, i)
		tokens[i], err = ensureUser(client, *baseURL, email, "LoadPassword123")
		if err != nil {
			fail("buyer login", err)
		}
	}

	// 2) 不超卖测试：不同用户并发各买 1 件
	fmt.Printf("start oversell test: sweet=%d users=%d concurrency=%d\n", sweetID, *nUsers, *concurrency)
	results := runBuy(client, *baseURL, sweetID, tokens, *concurrency)
	printSummary("oversell", results)

	remaining, err := getQuantity(client, *baseURL, adminToken, sweetID)
	if err != nil {
		fmt.Println("stock check err:", err)
	} else {
		sold := countStatus(results, http.StatusOK)
		fmt.Printf("final stock: %d, sold: %d\n", remaining, sold)
		if remaining < 0 || sold+remaining != *stock {
			fmt.Println("OVERSELL DETECTED")
			os.Exit(1)
		}
	}

	// 3) 限流测试：同一个用户重复购买（更容易触发 429）
	fmt.Println("\nstart rate limit test: same user, 50 requests, concurrency 50")
	same := make([]string, 50)
	for i := range same {
		same[i] = tokens[0]
	}
	printSummary("rate_limit", runBuy(client, *baseURL, sweetID, same, 50))
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", step, err)
	os.Exit(1)
}

func runBuy(client *http.Client, baseURL string, sweetID uint, tokens []string, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, len(tokens))

	for i, tok := range tokens {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, token string) {
			defer wg.Done()
			defer func() { <-sem }()

			url := fmt.Sprintf("%s/api/sweets/%d/purchase", baseURL, sweetID)
			results[idx] = do(client, http.MethodPost, url, token, map[string]int{"quantity": 1})
		}(i, tok)
	}

	wg.Wait()
	return results
}

// ensureUser 注册（已存在则忽略）并登录，返回 access token。
func ensureUser(client *http.Client, baseURL, email, password string) (string, error) {
	reg := do(client, http.MethodPost, baseURL+"/api/auth/register", "", map[string]string{
		"email": email, "full_name": "Load Tester", "password": password,
	})
	if reg.Err != nil {
		return "", reg.Err
	}
	if reg.Status != http.StatusCreated && reg.Status != http.StatusBadRequest {
		return "", fmt.Errorf("register status=%d body=%s", reg.Status, reg.Body)
	}

	res := do(client, http.MethodPost, baseURL+"/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := decode(res, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func createSweet(client *http.Client, baseURL, token, name string, stock int) (uint, error) {
	res := do(client, http.MethodPost, baseURL+"/api/sweets", token, map[string]any{
		"name": name, "category": "Loadtest", "price": "1.00", "quantity": stock,
	})
	var out struct {
		ID uint `json:"id"`
	}
	if err := decode(res, http.StatusCreated, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// getQuantity 查询商品当前库存，用于压测后校验是否出现超卖。
func getQuantity(client *http.Client, baseURL, token string, sweetID uint) (int, error) {
	res := do(client, http.MethodGet, fmt.Sprintf("%s/api/sweets/%d", baseURL, sweetID), token, nil)
	var out struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(res, http.StatusOK, &out); err != nil {
		return 0, err
	}
	return out.Quantity, nil
}

func decode(res Result, want int, data any) error {
	if res.Err != nil {
		return res.Err
	}
	if res.Status != want {
		return fmt.Errorf("status=%d body=%s", res.Status, res.Body)
	}
	var env envelope
	if err := json.Unmarshal([]byte(res.Body), &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, data)
}

func do(client *http.Client, method, url, token string, body any) Result {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		return Result{Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(b)}
}

func countStatus(results []Result, status int) int {
	n := 0
	for _, r := range results {
		if r.Err == nil && r.Status == status {
			n++
		}
	}
	return n
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 401, 404, 429, 500} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}
