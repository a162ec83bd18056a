package publish

import (
	"io"
	"net"
	"net/textproto"
	"path"
	"strings"
	"sync"
	"testing"
)

// ftpServer is a single-user FTP server holding its tree in memory. It
// speaks just enough of the protocol for ftp.ServerConn: login, FEAT,
// TYPE, PWD, CWD, MKD, EPSV and STOR.
type ftpServer struct {
	t        *testing.T
	listener net.Listener
	username string
	password string

	mu     sync.Mutex
	dirs   map[string]bool
	locked map[string]bool // existing directories that refuse MKD below them
	files  map[string][]byte
	stall  map[string]bool // STOR paths that never get a completion reply
	conns  []net.Conn
	wg     sync.WaitGroup
}

func newFTPServer(t *testing.T) *ftpServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &ftpServer{
		t:        t,
		listener: l,
		username: "sidik",
		password: "secret",
		dirs:     map[string]bool{"/": true},
		locked:   map[string]bool{},
		files:    map[string][]byte{},
		stall:    map[string]bool{},
	}
	go s.serve()
	t.Cleanup(func() {
		l.Close()
		s.mu.Lock()
		for _, c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
	return s
}

// endpoint returns an endpoint pointing at the server
func (s *ftpServer) endpoint() Endpoint {
	addr := s.listener.Addr().(*net.TCPAddr)
	return Endpoint{
		Name:     "primary",
		Protocol: ProtocolFTP,
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: s.username,
		Password: s.password,
	}
}

func (s *ftpServer) mkdir(dir string, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[dir] = true
	if locked {
		s.locked[dir] = true
	}
}

// stallOn makes STOR of name hang after the data transfer
func (s *ftpServer) stallOn(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stall[name] = true
}

func (s *ftpServer) file(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

func (s *ftpServer) hasDir(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[dir]
}

func (s *ftpServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.session(conn)
		}()
	}
}

type ftpSession struct {
	proto    *textproto.Conn
	cwd      string
	user     string
	loggedIn bool
	passive  net.Listener
}

func (s *ftpServer) session(conn net.Conn) {
	sess := &ftpSession{proto: textproto.NewConn(conn), cwd: "/"}
	defer func() {
		if sess.passive != nil {
			sess.passive.Close()
		}
	}()

	sess.proto.PrintfLine("220 wind-wave test server ready")
	for {
		line, err := sess.proto.ReadLine()
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(line, " ")
		if !s.handle(sess, strings.ToUpper(cmd), arg) {
			return
		}
	}
}

// handle answers one command and reports whether the session continues
func (s *ftpServer) handle(sess *ftpSession, cmd, arg string) bool {
	reply := sess.proto.PrintfLine
	if !sess.loggedIn && cmd != "USER" && cmd != "PASS" && cmd != "QUIT" {
		reply("530 Please login with USER and PASS")
		return true
	}

	switch cmd {
	case "USER":
		sess.user = arg
		reply("331 Password required")
	case "PASS":
		if sess.user != s.username || arg != s.password {
			reply("530 Login incorrect")
			return true
		}
		sess.loggedIn = true
		reply("230 Logged in")
	case "TYPE":
		reply("200 Type set to %s", arg)
	case "PWD":
		reply("257 \"%s\" is the current directory", sess.cwd)
	case "CWD":
		dir := resolve(sess.cwd, arg)
		if !s.hasDir(dir) {
			reply("550 %s: No such file or directory", arg)
			return true
		}
		sess.cwd = dir
		reply("250 Directory changed")
	case "MKD":
		reply("%s", s.makeDir(resolve(sess.cwd, arg), arg))
	case "EPSV":
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			reply("425 Cannot open data connection")
			return true
		}
		if sess.passive != nil {
			sess.passive.Close()
		}
		sess.passive = l
		reply("229 Entering Extended Passive Mode (|||%d|)", l.Addr().(*net.TCPAddr).Port)
	case "STOR":
		return s.store(sess, resolve(sess.cwd, arg))
	case "QUIT":
		reply("221 Goodbye")
		return false
	default:
		reply("502 Command not implemented")
	}
	return true
}

func (s *ftpServer) makeDir(dir, arg string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := path.Dir(dir)
	switch {
	case s.dirs[dir]:
		return "550 " + arg + ": File exists"
	case s.locked[parent]:
		return "550 " + arg + ": Permission denied"
	case !s.dirs[parent]:
		return "550 " + arg + ": No such file or directory"
	}
	s.dirs[dir] = true
	return "257 \"" + dir + "\" created"
}

func (s *ftpServer) store(sess *ftpSession, name string) bool {
	if sess.passive == nil {
		sess.proto.PrintfLine("425 Use EPSV first")
		return true
	}
	data, err := sess.passive.Accept()
	sess.passive.Close()
	sess.passive = nil
	if err != nil {
		sess.proto.PrintfLine("425 Cannot open data connection")
		return true
	}
	defer data.Close()

	s.mu.Lock()
	parentOK := s.dirs[path.Dir(name)]
	stall := s.stall[name]
	s.mu.Unlock()
	if !parentOK {
		sess.proto.PrintfLine("553 %s: No such file or directory", name)
		return true
	}

	sess.proto.PrintfLine("150 Opening data connection")
	body, err := io.ReadAll(data)
	if err != nil {
		sess.proto.PrintfLine("426 Transfer aborted")
		return true
	}
	if stall {
		// Hold the completion reply until the client goes away
		io.Copy(io.Discard, sess.proto.R)
		return false
	}

	s.mu.Lock()
	s.files[name] = body
	s.mu.Unlock()
	sess.proto.PrintfLine("226 Transfer complete")
	return true
}

func resolve(cwd, p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(cwd, p)
}
