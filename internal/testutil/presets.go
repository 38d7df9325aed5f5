package testutil

// WithStandardLayout adds the files a typical CPAN distribution ships
// besides its modules.
func (b *ArchiveBuilder) WithStandardLayout() *ArchiveBuilder {
	return b.
		WithFile("Makefile.PL", "use ExtUtils::MakeMaker;\nWriteMakefile(NAME => '"+b.name+"');\n").
		WithFile("README", b.name+" "+b.version+"\n").
		WithFile("t/basic.t", "use Test::More;\nok(1);\ndone_testing;\n")
}

// Dist is a gzipped distribution providing one module per package, all
// at version, with the standard layout.
func Dist(b *ArchiveBuilder, pkgs ...string) *ArchiveBuilder {
	b.WithStandardLayout()
	for _, p := range pkgs {
		b.WithModule(p, b.version)
	}
	return b
}
