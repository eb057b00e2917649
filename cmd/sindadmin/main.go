// sindadmin is a terminal front end for the SINDPLAST-AM registry: it signs
// in against the backend, keeps the session alive across restarts and other
// running copies, and exposes the registry screens as shell commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/sindplast-am/go-admin-client/apiclient"
	"github.com/sindplast-am/go-admin-client/guard"
	"github.com/sindplast-am/go-admin-client/internal/config"
	"github.com/sindplast-am/go-admin-client/reports"
	"github.com/sindplast-am/go-admin-client/session"
	"github.com/sindplast-am/go-admin-client/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sindadmin: %s\n", err)
		os.Exit(1)
	}
}

// lazyProvider breaks the construction cycle between the HTTP client and
// the session manager: the client is built first against this forwarder,
// the manager is bound afterwards.
type lazyProvider struct {
	manager *session.Manager
}

func (p *lazyProvider) AccessToken() string {
	if p.manager == nil {
		return ""
	}
	return p.manager.AccessToken()
}

func (p *lazyProvider) RefreshAccessToken(ctx context.Context) (string, error) {
	if p.manager == nil {
		return "", errors.New("session manager not ready")
	}
	return p.manager.RefreshAccessToken(ctx)
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			returnError = errors.Errorf("panic recovered: %v", r)
		}
	}()

	_ = godotenv.Load()
	cfg := config.MustLoad("")

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if cfg.Env == "DEV" {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	displayAppname("SINDPLAST Admin")

	kv, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()
	sessions := store.NewSessions(kv)

	provider := &lazyProvider{}
	client, err := apiclient.New(cfg.API.BaseURL, provider,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithClientLogger(log),
	)
	if err != nil {
		return err
	}

	manager, err := session.NewManager(client, sessions, session.WithManagerLogger(log))
	if err != nil {
		return err
	}
	defer manager.Close()
	provider.manager = manager

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if manager.Rehydrate(ctx) {
		if snap := manager.Snapshot(); snap.User != nil {
			fmt.Printf("Sessão restaurada para %s.\n", snap.User.Nome)
		}
	}

	shell := &shell{
		ctx:     ctx,
		client:  client,
		manager: manager,
		guard:   guard.New(manager, kv, guard.WithGuardLogger(log)),
		log:     log,
	}
	return shell.loop()
}

func openStore(cfg *config.Config, log zerolog.Logger) (store.KV, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		path, err := cfg.StorePath()
		if err != nil {
			return nil, err
		}
		return store.NewSQLite(path,
			store.WithSQLitePollInterval(cfg.Store.PollInterval),
			store.WithSQLiteLogger(log),
		)
	case "file":
		path, err := cfg.StorePath()
		if err != nil {
			return nil, err
		}
		return store.NewFile(path,
			store.WithPollInterval(cfg.Store.PollInterval),
			store.WithLogger(log),
		)
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

type shell struct {
	ctx     context.Context
	client  *apiclient.Client
	manager *session.Manager
	guard   *guard.Guard
	log     zerolog.Logger
	route   string
}

func (s *shell) loop() error {
	scanner := bufio.NewScanner(os.Stdin)
	s.navigate(guard.RouteRoot)

	for {
		fmt.Printf("sindadmin%s> ", s.prompt())
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			s.help()
		case "login":
			s.login(scanner)
		case "logout":
			s.manager.Logout(s.ctx)
			s.route = ""
			fmt.Println("Sessão encerrada.")
		case "whoami":
			s.whoami()
		case "goto":
			if len(args) != 1 {
				fmt.Println("uso: goto <rota>")
				continue
			}
			s.navigate(args[0])
		case "routes":
			for _, r := range s.guard.Routes() {
				fmt.Println(" ", r)
			}
		case "socios":
			s.navigate("/socios")
		case "empresas":
			s.navigate("/empresas")
		case "usuarios":
			s.navigate("/usuarios")
		case "perfis":
			s.navigate("/perfil")
		case "dashboard":
			s.navigate("/home")
		case "report":
			s.report(args)
		default:
			fmt.Printf("comando desconhecido: %s (help para a lista)\n", cmd)
		}
	}
}

func (s *shell) prompt() string {
	if s.route == "" {
		return ""
	}
	return " " + s.route
}

func (s *shell) help() {
	fmt.Println(`comandos:
  login                        autentica no backend
  logout                       encerra a sessão (local e no servidor)
  whoami                       mostra o usuário autenticado
  goto <rota>                  navega para uma rota protegida
  routes                       lista as rotas conhecidas
  socios | empresas | usuarios | perfis | dashboard
  report socio <id>            gera a ficha do sócio em PDF
  report empresas              gera o relatório geral de empresas em PDF
  quit`)
}

func (s *shell) login(scanner *bufio.Scanner) {
	fmt.Print("usuário: ")
	if !scanner.Scan() {
		return
	}
	usuario := strings.TrimSpace(scanner.Text())
	fmt.Print("senha: ")
	if !scanner.Scan() {
		return
	}
	senha := scanner.Text()

	if !s.manager.Login(s.ctx, usuario, senha) {
		if snap := s.manager.Snapshot(); snap.Error != "" {
			fmt.Println(snap.Error)
		}
		return
	}
	snap := s.manager.Snapshot()
	if snap.User != nil {
		fmt.Printf("Bem-vindo, %s.\n", snap.User.Nome)
	}
	s.navigate(guard.RouteRoot)
}

func (s *shell) whoami() {
	snap := s.manager.Snapshot()
	if snap.User == nil {
		fmt.Println("Não autenticado.")
		return
	}
	fmt.Printf("%s (%s) - perfil %s, função %s\n", snap.User.Nome, snap.User.Usuario, snap.User.Perfil, snap.User.Funcao)
	if exp, ok := s.manager.TokenExpiry(); ok {
		fmt.Printf("Token expira em %s.\n", exp.Format(time.RFC3339))
	}
}

// navigate runs the requested path through the route guard and renders the
// resolved screen.
func (s *shell) navigate(path string) {
	for range [4]struct{}{} { // bounded redirect chain
		res := s.guard.Resolve(path)
		switch res.Decision {
		case guard.ShowLoading:
			fmt.Println("Carregando...")
			return
		case guard.ShowLogin:
			fmt.Println("Faça login para continuar (comando: login).")
			s.route = ""
			return
		case guard.Redirect:
			path = res.Path
			continue
		case guard.Render:
			s.route = res.Path
			s.render(res.Path)
			return
		}
	}
}

func (s *shell) render(path string) {
	switch path {
	case guard.RouteHome:
		s.renderDashboard()
	case "/socios":
		s.renderSocios()
	case "/empresas":
		s.renderEmpresas()
	case "/usuarios":
		s.renderUsuarios()
	case "/perfil":
		s.renderPerfis()
	default:
		fmt.Printf("[%s]\n", path)
	}
}

func (s *shell) renderDashboard() {
	totals, err := s.client.Dashboard.Totals(s.ctx)
	if err != nil {
		fmt.Println("Erro ao carregar o painel:", err)
		return
	}
	fmt.Printf("Sócios: %d | Empresas: %d | Usuários: %d\n", totals.Socios, totals.Empresas, totals.Usuarios)

	charts, err := s.client.Dashboard.Charts(s.ctx)
	if err != nil {
		return
	}
	fmt.Println("Sócios por status:")
	for status, n := range charts.SociosPorStatus {
		fmt.Printf("  %-12s %d\n", status, n)
	}
}

func (s *shell) renderSocios() {
	list, err := s.client.Socios.List(s.ctx)
	if err != nil {
		fmt.Println("Falha ao carregar a lista de sócios:", err)
		return
	}
	for _, socio := range list {
		fmt.Printf("%5d  %-40s %-12s %s\n", socio.ID, socio.Nome, socio.Status, socio.RazaoSocial)
	}
	fmt.Printf("%d sócios.\n", len(list))
}

func (s *shell) renderEmpresas() {
	list, err := s.client.Empresas.List(s.ctx)
	if err != nil {
		fmt.Println("Falha ao carregar a lista de empresas:", err)
		return
	}
	for _, e := range list {
		fmt.Printf("%5d  %-8s %-40s %s/%s\n", e.ID, e.CodEmpresa, e.RazaoSocial, e.Cidade, e.UF)
	}
	fmt.Printf("%d empresas.\n", len(list))
}

func (s *shell) renderUsuarios() {
	list, err := s.client.Usuarios.List(s.ctx)
	if err != nil {
		fmt.Println("Falha ao carregar a lista de usuários:", err)
		return
	}
	for _, u := range list {
		fmt.Printf("%5d  %-30s %-15s %s\n", u.IdUsuarios, u.Nome, u.Usuario, u.Perfil)
	}
}

func (s *shell) renderPerfis() {
	list, err := s.client.Perfis.List(s.ctx)
	if err != nil {
		fmt.Println("Falha ao carregar os perfis:", err)
		return
	}
	for _, p := range list {
		fmt.Printf("%5d  %-20s %s\n", p.IdPerfil, p.Perfil, p.Descricao)
	}
}

func (s *shell) report(args []string) {
	if !s.manager.IsAuthenticated() {
		fmt.Println("Faça login para continuar (comando: login).")
		return
	}
	if len(args) == 0 {
		fmt.Println("uso: report socio <id> | report empresas")
		return
	}

	switch args[0] {
	case "socio":
		if len(args) != 2 {
			fmt.Println("uso: report socio <id>")
			return
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("id inválido:", args[1])
			return
		}
		socio, err := s.client.Socios.Get(s.ctx, id)
		if err != nil {
			fmt.Println("Falha ao carregar os dados do sócio:", err)
			return
		}
		path := filepath.Join(".", fmt.Sprintf("ficha-socio-%d.pdf", id))
		if err := s.writeReport(path, func(f *os.File) error {
			return reports.SocioFicha(f, socio)
		}); err != nil {
			fmt.Println("Falha ao gerar o PDF:", err)
			return
		}
		fmt.Println("Gerado:", path)
	case "empresas":
		list, err := s.client.Empresas.List(s.ctx)
		if err != nil {
			fmt.Println("Falha ao carregar a lista de empresas:", err)
			return
		}
		path := filepath.Join(".", "relatorio-empresas.pdf")
		if err := s.writeReport(path, func(f *os.File) error {
			return reports.EmpresasRelatorioGeral(f, list)
		}); err != nil {
			fmt.Println("Falha ao gerar o PDF:", err)
			return
		}
		fmt.Println("Gerado:", path)
	default:
		fmt.Println("uso: report socio <id> | report empresas")
	}
}

func (s *shell) writeReport(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
