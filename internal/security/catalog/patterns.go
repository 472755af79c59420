package catalog

import "regexp"

// Category tags a malicious pattern with the attack class it detects.
type Category string

const (
	CategorySQLInjection     Category = "SQL_INJECTION"
	CategoryXSS              Category = "XSS"
	CategoryCommandInjection Category = "COMMAND_INJECTION"
	CategoryPathTraversal    Category = "PATH_TRAVERSAL"
	CategorySSRF             Category = "SSRF"
)

// Severity is the incident level a pattern match produces.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
)

// Surface selects which request parts a pattern is tested against. URL
// patterns run on the full decoded request URL; value patterns run on every
// string leaf of the query and body trees. Running value-only patterns (bare
// quotes, shell metacharacters) against whole URLs would block every
// multi-parameter GET, so the split is load-bearing.
type Surface uint8

const (
	SurfaceURL Surface = 1 << iota
	SurfaceValues
)

// Pattern is one entry of the ordered malicious-content table. First match
// wins; order within the table is significant.
type Pattern struct {
	Category Category
	Severity Severity
	Surfaces Surface
	Regexp   *regexp.Regexp
}

// maliciousPatterns is ordered by category priority: SQL first so a value like
// `1' OR '1'='1` classifies as SQL injection even when later tables would also
// match it.
var maliciousPatterns = []Pattern{
	// SQL injection
	{CategorySQLInjection, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|UNION|EXEC)\s+\w+\s+`)},
	{CategorySQLInjection, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)union\s+select`)},
	{CategorySQLInjection, SeverityCritical, SurfaceValues, regexp.MustCompile(`('|"|;|--|#|/\*|\*/|\\/)`)},
	{CategorySQLInjection, SeverityCritical, SurfaceValues, regexp.MustCompile(`(?i)\b(OR|AND)\s+\d+\s*(=|!=|<|>)`)},

	// Cross-site scripting
	{CategoryXSS, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)<script\b[^>]*>`)},
	{CategoryXSS, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)javascript:`)},
	{CategoryXSS, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)on\w+\s*=`)},
	{CategoryXSS, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)<(iframe|object|embed)\b[^>]*>`)},
	{CategoryXSS, SeverityCritical, SurfaceURL, regexp.MustCompile(`(?i)\b(alert|prompt|confirm)\s*\(`)},

	// Command injection
	{CategoryCommandInjection, SeverityCritical, SurfaceValues, regexp.MustCompile(`(?i)\b(rm\s+-rf|del\s+/q|wget|curl|nc|netcat|bash|sh|cmd)\b`)},
	{CategoryCommandInjection, SeverityCritical, SurfaceValues, regexp.MustCompile("(\\||&|;|`|\\$\\(|\n|\r)")},
	{CategoryCommandInjection, SeverityCritical, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)\b(eval|exec)\(`)},

	// Path traversal
	{CategoryPathTraversal, SeverityHigh, SurfaceValues | SurfaceURL, regexp.MustCompile(`\.\./`)},
	{CategoryPathTraversal, SeverityHigh, SurfaceValues | SurfaceURL, regexp.MustCompile(`\.\.\\`)},
	{CategoryPathTraversal, SeverityHigh, SurfaceValues | SurfaceURL, regexp.MustCompile(`/etc/`)},
	{CategoryPathTraversal, SeverityHigh, SurfaceValues | SurfaceURL, regexp.MustCompile(`/var/`)},
	{CategoryPathTraversal, SeverityHigh, SurfaceValues | SurfaceURL, regexp.MustCompile(`/(passwd|shadow)\b`)},
	{CategoryPathTraversal, SeverityHigh, SurfaceValues, regexp.MustCompile(`\.(env|git)\b`)},

	// Server-side request forgery
	{CategorySSRF, SeverityHigh, SurfaceValues, regexp.MustCompile(`(?i)(localhost|127\.0\.0\.1|0\.0\.0\.0)`)},
	{CategorySSRF, SeverityHigh, SurfaceValues, regexp.MustCompile(`169\.254\.\d+\.\d+`)},
	{CategorySSRF, SeverityHigh, SurfaceValues, regexp.MustCompile(`10\.\d+\.\d+\.\d+`)},
	{CategorySSRF, SeverityHigh, SurfaceValues, regexp.MustCompile(`192\.168\.\d+\.\d+`)},
	{CategorySSRF, SeverityHigh, SurfaceValues, regexp.MustCompile(`172\.(1[6-9]|2[0-9]|3[0-1])\.\d+\.\d+`)},
	{CategorySSRF, SeverityHigh, SurfaceValues, regexp.MustCompile(`(?i)metadata\.google\.internal`)},
	{CategorySSRF, SeverityHigh, SurfaceValues | SurfaceURL, regexp.MustCompile(`(?i)(file|ftp|gopher)://`)},
}

// honeypotPaths are decoy substrings; a request whose lowercased path contains
// any of them gets a generic 404 so scanners cannot tell the path is special.
var honeypotPaths = []string{
	"/admin", "/wp-admin", "/phpmyadmin", "/mysql", "/dbadmin",
	"/administrator", "/backup", "/.git", "/.env", "/config",
	"/shell", "/cgi-bin", "/.well-known", "/hidden", "/secret",
	"/cpanel", "/webadmin", "/phpadmin", "/database",
	"/backups", "/logs", "/tmp", "/temp", "/upload",
	"/uploads", "/install", "/setup", "/debug",
	"/api/test", "/api/debug", "/test", "/demo",
	"/_admin", "/_phpmyadmin", "/pma",
	"/myadmin", "/sql", "/db", "/databaseadmin",
	"/webdav", "/ftp", "/.ssh", "/.htaccess",
	"/.htpasswd", "/wp-login.php", "/xmlrpc.php",
}

// forbiddenPaths lists sensitive files, directories (trailing slash) and
// extensions (leading dot) that must never be served. Matching rules live in
// MatchForbidden.
var forbiddenPaths = []string{
	// Log files
	"/segurity.log", "/security.log", "/access.log", "/error.log",
	"/application.log", "/app.log", "/debug.log", "/system.log",
	"/audit.log", "/security-incidents.log", "/server.log",
	"/server-errors.log", "/npm-debug.log", "/yarn-error.log",
	"/yarn-debug.log", "/deploy.log", "/deployment.log", "/.log",

	// Environment and secrets
	"/.env", "/.env.local", "/.env.production", "/.env.development",
	"/.env.test", "/config.json", "/config.yml", "/config.yaml",
	"/secrets.json", "/credentials.json", "/appsettings.json",
	"/web.config", "/app.config",

	// Dependency manifests and lockfiles
	"/package.json", "/package-lock.json", "/composer.json",
	"/composer.lock", "/yarn.lock", "/pnpm-lock.yaml",
	"/gemfile", "/gemfile.lock", "/pipfile", "/pipfile.lock",
	"/requirements.txt", "/poetry.lock", "/go.mod", "/go.sum",
	"/cargo.toml", "/cargo.lock",

	// Version control and IDE directories
	"/.git/", "/.svn/", "/.hg/", "/cvs/", "/.gitignore",
	"/.gitattributes", "/.gitmodules", "/.vscode/", "/.idea/",
	"/.vs/", "/.project", "/.settings/", "/.eclipse/", "/.netbeans/",

	// Build output and caches
	"/node_modules/", "/vendor/", "/coverage/", "/.next/", "/dist/",
	"/build/", "/out/", "/.nuxt/", "/.cache/", "/.parcel-cache/",
	"/.nyc_output/", "/coverage.json", "/lcov.info",

	// Databases and backups
	"/backup.sql", "/database.sql", "/dump.sql", "/.sql",
	"/backup.zip", "/backup.tar.gz", "/backup.tar", "/.bak",
	"/.backup", "/db.backup", "/db.sqlite", "/db.sqlite3",
	"/database.db", "/data.db", "/.db", "/.sqlite", "/.sqlite3",
	"/.mdb", "/.accdb", "/migrations/", "/seeds/",

	// Server and deployment configs
	"/server-status", "/server-info", "/phpinfo.php", "/info.php",
	"/deploy.sh", "/.deployment", "/dockerfile", "/docker-compose.yml",
	"/docker-compose.yaml", "/.dockerignore", "/.gitlab-ci.yml",
	"/.travis.yml", "/jenkinsfile", "/.circleci/", "/.github/",
	"/azure-pipelines.yml", "/.htaccess", "/.htpasswd", "/httpd.conf",
	"/nginx.conf", "/pm2.config.js", "/ecosystem.config.js",
	"/nodemon.json",

	// Documentation revealing internals
	"/.md", "/readme.md", "/changelog.md", "/contributing.md",
	"/license.md", "/todo.md", "/deployment.md", "/security.md",
	"/architecture.md", "/api.md", "/development.md", "/install.md",
	"/usage.md",

	// Test and tooling configs
	"/jest.config.js", "/jest.config.ts", "/vitest.config.js",
	"/playwright.config.js", "/cypress.json", "/test/", "/tests/",
	"/__tests__/", "/tsconfig.json", "/jsconfig.json",
	"/webpack.config.js", "/vite.config.js", "/vite.config.ts",
	"/rollup.config.js", "/.babelrc", "/.babelrc.json", "/.eslintrc",
	"/.eslintrc.json", "/.prettierrc", "/.prettierrc.json",
	"/.npmrc", "/.yarnrc",

	// Source maps
	"/.map", "/source-maps/", "/sourcemaps/",

	// Certificates and keys
	"/.pem", "/.key", "/.crt", "/.cer", "/.p12", "/.pfx",
	"/private.key", "/public.key", "/ssl/", "/certs/", "/certificates/",

	// Temp files and editor droppings
	"/.tmp", "/.temp", "/tmp/", "/temp/", "/.swp", "/.swo",
	"/.orig", "/.ds_store", "/thumbs.db", "/desktop.ini",

	// Sensitive directories
	"/logs/", "/log/", "/private/", "/internal/", "/confidential/",
	"/sessions/", "/.sessions/", "/storage/logs/",
	"/.well-known/security.txt",

	// WordPress probes
	"/wp-config.php", "/wp-config-sample.php",
}
